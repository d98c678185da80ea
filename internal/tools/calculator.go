package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// NewCalculator returns a tool that evaluates arithmetic expressions.
// The expression is parsed and evaluated directly; nothing is ever
// handed to an interpreter.
func NewCalculator() *Tool {
	return &Tool{
		Name:        "calculator",
		Description: "Evaluate an arithmetic expression. Supports + - * / % ^, parentheses, and unary minus.",
		Schema: ToolSchema{
			Required: []string{"expression"},
			Properties: map[string]Property{
				"expression": {Type: "string", Description: "The expression to evaluate, e.g. \"(2 + 3) * 4\"."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			expr, ok := StringArg(args, "expression")
			if !ok {
				return "", fmt.Errorf("%w: expression", ErrMissingArgument)
			}
			result, err := Evaluate(expr)
			if err != nil {
				return "", err
			}
			return strconv.FormatFloat(result, 'f', -1, 64), nil
		},
	}
}

// Evaluate computes the value of an arithmetic expression using the
// shunting-yard algorithm.
func Evaluate(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	rpn, err := toRPN(tokens)
	if err != nil {
		return 0, err
	}
	return evalRPN(rpn)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokLeftParen
	tokRightParen
)

type token struct {
	kind  tokenKind
	value float64
	op    byte
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			n, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", expr[i:j])
			}
			tokens = append(tokens, token{kind: tokNumber, value: n})
			i = j
		case c == '(':
			tokens = append(tokens, token{kind: tokLeftParen})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRightParen})
			i++
		case strings.IndexByte("+-*/%^", c) >= 0:
			op := c
			// A minus at the start or after an operator or '(' is unary.
			if op == '-' && (len(tokens) == 0 ||
				tokens[len(tokens)-1].kind == tokOperator ||
				tokens[len(tokens)-1].kind == tokLeftParen) {
				op = 'u'
			}
			tokens = append(tokens, token{kind: tokOperator, op: op})
			i++
		case unicode.IsLetter(rune(c)):
			return nil, fmt.Errorf("unexpected identifier at position %d", i)
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", c, i)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return tokens, nil
}

func precedence(op byte) int {
	switch op {
	case 'u':
		return 4
	case '^':
		return 3
	case '*', '/', '%':
		return 2
	default:
		return 1
	}
}

func rightAssociative(op byte) bool { return op == '^' || op == 'u' }

func toRPN(tokens []token) ([]token, error) {
	var output, stack []token
	for _, t := range tokens {
		switch t.kind {
		case tokNumber:
			output = append(output, t)
		case tokOperator:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind != tokOperator {
					break
				}
				if precedence(top.op) > precedence(t.op) ||
					(precedence(top.op) == precedence(t.op) && !rightAssociative(t.op)) {
					output = append(output, top)
					stack = stack[:len(stack)-1]
					continue
				}
				break
			}
			stack = append(stack, t)
		case tokLeftParen:
			stack = append(stack, t)
		case tokRightParen:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.kind == tokLeftParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		}
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.kind == tokLeftParen {
			return nil, fmt.Errorf("unbalanced parentheses")
		}
		output = append(output, top)
	}
	return output, nil
}

func evalRPN(rpn []token) (float64, error) {
	var stack []float64
	pop := func() (float64, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for _, t := range rpn {
		if t.kind == tokNumber {
			stack = append(stack, t.value)
			continue
		}
		if t.op == 'u' {
			v, ok := pop()
			if !ok {
				return 0, fmt.Errorf("malformed expression")
			}
			stack = append(stack, -v)
			continue
		}
		b, okB := pop()
		a, okA := pop()
		if !okA || !okB {
			return 0, fmt.Errorf("malformed expression")
		}
		switch t.op {
		case '+':
			stack = append(stack, a+b)
		case '-':
			stack = append(stack, a-b)
		case '*':
			stack = append(stack, a*b)
		case '/':
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			stack = append(stack, a/b)
		case '%':
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			stack = append(stack, math.Mod(a, b))
		case '^':
			stack = append(stack, math.Pow(a, b))
		default:
			return 0, fmt.Errorf("unknown operator %q", t.op)
		}
	}
	if len(stack) != 1 {
		return 0, fmt.Errorf("malformed expression")
	}
	return stack[0], nil
}
