package structured

import (
	"context"
	"strings"
	"testing"

	"praxis/internal/llm/llmtest"
)

type review struct {
	Product string `json:"product"`
	Rating  int    `json:"rating" desc:"star rating from 1 to 5"`
	Mood    string `json:"mood" enum:"positive,neutral,negative"`
	Summary string `json:"summary,omitempty"`
}

func TestSchemaInstructions(t *testing.T) {
	schema, err := SchemaOf(review{})
	if err != nil {
		t.Fatalf("SchemaOf: %v", err)
	}
	inst := schema.Instructions()
	for _, want := range []string{
		`"product": string`,
		`"rating": integer (star rating from 1 to 5)`,
		`one of: positive, neutral, negative`,
		`"summary": string (optional)`,
	} {
		if !strings.Contains(inst, want) {
			t.Errorf("instructions missing %q:\n%s", want, inst)
		}
	}
}

func TestSchemaOfNonStruct(t *testing.T) {
	if _, err := SchemaOf(42); err == nil {
		t.Fatal("expected error for non-struct")
	}
}

func TestCleanJSON(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Here you go:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"```\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`},
	}
	for _, tc := range cases {
		if got := CleanJSON(tc.in); got != tc.want {
			t.Errorf("CleanJSON(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeValid(t *testing.T) {
	r, err := Decode[review](`{"product":"kettle","rating":4,"mood":"positive"}`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Product != "kettle" || r.Rating != 4 || r.Mood != "positive" {
		t.Fatalf("r=%+v", r)
	}
}

func TestDecodeMissingRequiredField(t *testing.T) {
	_, err := Decode[review](`{"product":"kettle","mood":"positive"}`)
	if err == nil || !strings.Contains(err.Error(), `"rating"`) {
		t.Fatalf("err=%v, want missing rating", err)
	}
}

func TestDecodeOptionalFieldMayBeAbsent(t *testing.T) {
	if _, err := Decode[review](`{"product":"kettle","rating":3,"mood":"neutral"}`); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecodeEnumViolation(t *testing.T) {
	_, err := Decode[review](`{"product":"kettle","rating":4,"mood":"ecstatic"}`)
	if err == nil || !strings.Contains(err.Error(), "ecstatic") {
		t.Fatalf("err=%v, want enum violation", err)
	}
}

func TestExtractRetriesOnInvalidOutput(t *testing.T) {
	client := llmtest.NewMockClient(
		"Sure! The mood is clearly ecstatic.",
		"```json\n{\"product\":\"kettle\",\"rating\":5,\"mood\":\"positive\"}\n```",
	)

	r, err := Extract[review](context.Background(), client, "Extract the review.", "Love this kettle!")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.Rating != 5 {
		t.Fatalf("Rating=%d, want 5", r.Rating)
	}
	if client.CallCount() != 2 {
		t.Fatalf("calls=%d, want 2", client.CallCount())
	}
	if !strings.Contains(client.Calls[1], "previous response was invalid") {
		t.Fatalf("retry prompt missing error feedback: %q", client.Calls[1])
	}
}

func TestExtractGivesUpAfterRetry(t *testing.T) {
	client := llmtest.NewMockClient("not json", "still not json")
	if _, err := Extract[review](context.Background(), client, "Extract.", "input"); err == nil {
		t.Fatal("expected error after failed retry")
	}
	if client.CallCount() != 2 {
		t.Fatalf("calls=%d, want 2", client.CallCount())
	}
}

func TestParseEmail(t *testing.T) {
	client := llmtest.NewMockClient(
		`{"sender":"Dana","subject":"Server down","intent":"complaint","urgency":"high","action_items":["restart the API server"]}`,
	)
	email, err := ParseEmail(context.Background(), client, "The server is down again! Please restart it. -- Dana")
	if err != nil {
		t.Fatalf("ParseEmail: %v", err)
	}
	if email.Urgency != "high" || len(email.ActionItems) != 1 {
		t.Fatalf("email=%+v", email)
	}
}

func TestParseEmailValidatorRejectsEmptySubject(t *testing.T) {
	client := llmtest.NewMockClient(
		`{"sender":"Dana","subject":"","intent":"question","urgency":"low"}`,
		`{"sender":"Dana","subject":"","intent":"question","urgency":"low"}`,
	)
	if _, err := ParseEmail(context.Background(), client, "hi"); err == nil ||
		!strings.Contains(err.Error(), "subject") {
		t.Fatalf("err=%v, want subject validation error", err)
	}
}
