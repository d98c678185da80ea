package tools

import (
	"context"
	"math"
	"testing"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2 + 3", 5},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"2 ^ 10", 1024},
		{"2 ^ 3 ^ 2", 512},
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"3 * -2", -6},
		{"1.5 * 2", 3},
		{"100 - 25 - 25", 50},
	}
	for _, tc := range cases {
		got, err := Evaluate(tc.expr)
		if err != nil {
			t.Errorf("Evaluate(%q): %v", tc.expr, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Evaluate(%q)=%v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	cases := []string{
		"",
		"2 +",
		"(2 + 3",
		"2 + 3)",
		"1 / 0",
		"5 % 0",
		"import os",
		"2 & 3",
	}
	for _, expr := range cases {
		if _, err := Evaluate(expr); err == nil {
			t.Errorf("Evaluate(%q): expected error", expr)
		}
	}
}

func TestCalculatorTool(t *testing.T) {
	tool := NewCalculator()
	out, err := tool.Execute(context.Background(), map[string]any{"expression": "6 * 7"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "42" {
		t.Fatalf("out=%q, want 42", out)
	}
}
