// Package structured extracts typed values from model output. A target
// struct's json tags drive both the format instructions sent to the model
// and the validation applied to what comes back.
package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"praxis/internal/llm"
	"praxis/internal/logging"
)

// Validator lets target types enforce their own invariants after decoding.
type Validator interface {
	Validate() error
}

// Schema describes the JSON shape expected from the model.
type Schema struct {
	fields []fieldSpec
}

type fieldSpec struct {
	name     string
	jsonType string
	desc     string
	enum     []string
	optional bool
}

// SchemaOf builds a schema from a struct type using its json, desc, and
// enum tags. Fields tagged json:"-" are skipped; ",omitempty" marks a
// field optional.
func SchemaOf(v any) (*Schema, error) {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema target must be a struct, got %s", t.Kind())
	}

	var s Schema
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name := f.Name
		optional := false
		if tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, p := range parts[1:] {
				if p == "omitempty" {
					optional = true
				}
			}
		}

		spec := fieldSpec{
			name:     name,
			jsonType: jsonTypeOf(f.Type),
			desc:     f.Tag.Get("desc"),
			optional: optional,
		}
		if enum := f.Tag.Get("enum"); enum != "" {
			spec.enum = strings.Split(enum, ",")
		}
		s.fields = append(s.fields, spec)
	}
	if len(s.fields) == 0 {
		return nil, fmt.Errorf("struct %s has no extractable fields", t.Name())
	}
	return &s, nil
}

func jsonTypeOf(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array of " + jsonTypeOf(t.Elem())
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Pointer:
		return jsonTypeOf(t.Elem())
	default:
		return "string"
	}
}

// Instructions renders the format block appended to extraction prompts.
func (s *Schema) Instructions() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object and nothing else. Fields:\n")
	for _, f := range s.fields {
		fmt.Fprintf(&b, "  %q: %s", f.name, f.jsonType)
		var notes []string
		if f.desc != "" {
			notes = append(notes, f.desc)
		}
		if len(f.enum) > 0 {
			notes = append(notes, "one of: "+strings.Join(f.enum, ", "))
		}
		if f.optional {
			notes = append(notes, "optional")
		}
		if len(notes) > 0 {
			b.WriteString(" (" + strings.Join(notes, "; ") + ")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// validate checks required fields and enum constraints on the raw object.
func (s *Schema) validate(raw map[string]json.RawMessage) error {
	for _, f := range s.fields {
		val, present := raw[f.name]
		if !present {
			if f.optional {
				continue
			}
			return fmt.Errorf("missing required field %q", f.name)
		}
		if len(f.enum) > 0 {
			var str string
			if err := json.Unmarshal(val, &str); err != nil {
				return fmt.Errorf("field %q must be a string, one of: %s", f.name, strings.Join(f.enum, ", "))
			}
			if !containsString(f.enum, str) {
				return fmt.Errorf("field %q has invalid value %q, must be one of: %s",
					f.name, str, strings.Join(f.enum, ", "))
			}
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CleanJSON strips code fences and any prose around the outermost JSON
// object. Models wrap output in markdown more often than not.
func CleanJSON(out string) string {
	out = strings.TrimSpace(out)
	if strings.HasPrefix(out, "```") {
		if idx := strings.Index(out, "\n"); idx >= 0 {
			out = out[idx+1:]
		}
		if idx := strings.LastIndex(out, "```"); idx >= 0 {
			out = out[:idx]
		}
		out = strings.TrimSpace(out)
	}
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start >= 0 && end > start {
		return out[start : end+1]
	}
	return out
}

// Extract asks the model for input parsed into T. Invalid output is
// retried once with the decode error fed back.
func Extract[T any](ctx context.Context, client llm.Client, task, input string) (T, error) {
	var zero T
	schema, err := SchemaOf(zero)
	if err != nil {
		return zero, err
	}

	system := task + "\n\n" + schema.Instructions()
	prompt := input

	log := logging.Get(logging.CategoryLLM)
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		out, err := client.CompleteWithSystem(ctx, system, prompt)
		if err != nil {
			return zero, fmt.Errorf("extract: %w", err)
		}

		result, decodeErr := decode[T](schema, out)
		if decodeErr == nil {
			return result, nil
		}
		lastErr = decodeErr
		log.Debugw("structured decode failed", "attempt", attempt+1, "err", decodeErr)

		// Retry with the error appended so the model can fix its output.
		prompt = fmt.Sprintf("%s\n\nYour previous response was invalid: %v\nRespond again with only the corrected JSON object.", input, decodeErr)
	}
	return zero, fmt.Errorf("extract: %w", lastErr)
}

// Decode parses model output into T, applying schema validation.
func Decode[T any](out string) (T, error) {
	var zero T
	schema, err := SchemaOf(zero)
	if err != nil {
		return zero, err
	}
	return decode[T](schema, out)
}

func decode[T any](schema *Schema, out string) (T, error) {
	var result T
	cleaned := CleanJSON(out)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return result, fmt.Errorf("not a JSON object: %v", err)
	}
	if err := schema.validate(raw); err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return result, fmt.Errorf("decode: %v", err)
	}
	if v, ok := any(&result).(Validator); ok {
		if err := v.Validate(); err != nil {
			return result, err
		}
	} else if v, ok := any(result).(Validator); ok {
		if err := v.Validate(); err != nil {
			return result, err
		}
	}
	return result, nil
}
