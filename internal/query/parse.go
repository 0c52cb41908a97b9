package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"

	"github.com/lu-w/stars-logic-mtcq/internal/kb"
)

// ErrMalformedQuery is returned for query text that has no goal or does not
// parse.
var ErrMalformedQuery = errors.New("malformed query")

// Query is a parsed query: optional Mangle rules followed by one goal line
// of the form "?pred(Args...)".
type Query struct {
	Source string
	Rules  parse.SourceUnit
	Goal   ast.Atom
	// vars are the named goal variables in argument order, without "_".
	vars []goalVar
}

type goalVar struct {
	name  string
	index int
}

// Parse splits src into rules and goal. The goal is the last non-empty,
// non-comment line and must start with "?".
func Parse(src string) (*Query, error) {
	lines := strings.Split(src, "\n")
	goalLine := -1
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		goalLine = i
		break
	}
	if goalLine < 0 {
		return nil, fmt.Errorf("%w: empty query", ErrMalformedQuery)
	}

	goalText := strings.TrimSpace(lines[goalLine])
	if !strings.HasPrefix(goalText, "?") {
		return nil, fmt.Errorf("%w: last line must be a ?goal, got %q", ErrMalformedQuery, goalText)
	}
	goalText = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(goalText, "?"), "."))

	goal, err := parse.Atom(goalText)
	if err != nil {
		return nil, fmt.Errorf("%w: goal %q: %v", ErrMalformedQuery, goalText, err)
	}

	q := &Query{Source: src, Goal: goal}
	for idx, arg := range goal.Args {
		if v, ok := arg.(ast.Variable); ok && v.Symbol != "_" {
			q.vars = append(q.vars, goalVar{name: v.Symbol, index: idx})
		}
	}

	rules := strings.Join(lines[:goalLine], "\n")
	if strings.TrimSpace(rules) != "" {
		unit, err := parse.Unit(strings.NewReader(rules))
		if err != nil {
			return nil, fmt.Errorf("%w: rules: %v", ErrMalformedQuery, err)
		}
		q.Rules = unit
	}
	return q, nil
}

// Variables lists the named goal variables.
func (q *Query) Variables() []string {
	names := make([]string, 0, len(q.vars))
	seen := make(map[string]bool)
	for _, v := range q.vars {
		if !seen[v.name] {
			seen[v.name] = true
			names = append(names, v.name)
		}
	}
	return names
}

// match unifies the goal with a fact and returns the variable bindings.
func (q *Query) match(fact ast.Atom) (map[string]ast.Constant, bool) {
	if len(fact.Args) != len(q.Goal.Args) {
		return nil, false
	}
	bound := make(map[string]ast.Constant, len(q.vars))
	for i, arg := range q.Goal.Args {
		value, ok := fact.Args[i].(ast.Constant)
		if !ok {
			return nil, false
		}
		switch a := arg.(type) {
		case ast.Variable:
			if a.Symbol == "_" {
				continue
			}
			if prev, seen := bound[a.Symbol]; seen && !kb.SameConstant(prev, value) {
				return nil, false
			}
			bound[a.Symbol] = value
		case ast.Constant:
			if !kb.SameConstant(a, value) {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return bound, true
}
