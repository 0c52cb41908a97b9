// Package kb provides the knowledge-base side of the mapping: a Mangle fact
// store holding description-logic style facts (concepts, individuals, types,
// relation and attribute assertions) for one instant.
package kb

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/factstore"
)

// ErrFactLimit is returned when a snapshot would grow past its fact limit.
var ErrFactLimit = errors.New("fact limit exceeded")

// Sink is the write side of a knowledge base. Every method is idempotent:
// repeating an identical declaration or assertion is a no-op.
type Sink interface {
	DeclareClass(name string) error
	DeclareIndividual(name string) error
	AssertType(individual, class string) error
	DeclareObjectProperty(name string) error
	DeclareDataProperty(name string) error
	AssertRelation(property, subject, object string) error
	AssertData(property, subject string, value Literal) error
}

// Fact is a stored atom with its arguments converted to Go values.
type Fact struct {
	Predicate string `json:"predicate"`
	Args      []any  `json:"args"`
}

// String returns the Datalog representation of the fact.
func (f Fact) String() string {
	args := make([]string, 0, len(f.Args))
	for _, arg := range f.Args {
		switch v := arg.(type) {
		case string:
			if strings.HasPrefix(v, "/") {
				args = append(args, v)
			} else {
				args = append(args, fmt.Sprintf("%q", v))
			}
		case float64:
			args = append(args, fmt.Sprintf("%g", v))
		default:
			args = append(args, fmt.Sprintf("%v", v))
		}
	}
	return fmt.Sprintf("%s(%s).", f.Predicate, strings.Join(args, ", "))
}

// Option configures a snapshot.
type Option func(*Snapshot)

// WithFactLimit caps the number of facts a snapshot (and its clones) accept.
// Zero means unlimited.
func WithFactLimit(limit int) Option {
	return func(s *Snapshot) { s.limit = limit }
}

// Snapshot is one knowledge base. It implements Sink.
type Snapshot struct {
	mu      sync.RWMutex
	program *Program
	store   factstore.FactStore
	count   int
	limit   int
}

var _ Sink = (*Snapshot)(nil)

// NewSnapshot returns an empty snapshot that knows only the vocabulary.
func NewSnapshot(opts ...Option) *Snapshot {
	program, err := ParseProgram("")
	if err != nil {
		// The vocabulary is a constant; failing to parse it is a programming error.
		panic(fmt.Sprintf("kb: vocabulary does not parse: %v", err))
	}
	return newSnapshot(program, opts...)
}

func newSnapshot(program *Program, opts ...Option) *Snapshot {
	s := &Snapshot{
		program: program,
		store:   factstore.NewSimpleInMemoryStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Program returns the rule base the snapshot was created with.
func (s *Snapshot) Program() *Program { return s.program }

// Clone returns an independent copy. Writes to the clone never show up in the
// original and vice versa; the immutable Program is shared.
func (s *Snapshot) Clone() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Snapshot{
		program: s.program,
		store:   factstore.NewSimpleInMemoryStore(),
		limit:   s.limit,
	}
	for _, sym := range s.store.ListPredicates() {
		_ = s.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
			if clone.store.Add(atom) {
				clone.count++
			}
			return nil
		})
	}
	return clone
}

// Len returns the number of stored facts.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// DeclareClass records concept(name).
func (s *Snapshot) DeclareClass(name string) error {
	return s.assert(symConcept, ast.String(name))
}

// DeclareIndividual records individual(name).
func (s *Snapshot) DeclareIndividual(name string) error {
	return s.assert(symIndividual, ast.String(name))
}

// AssertType records instance_of(individual, class).
func (s *Snapshot) AssertType(individual, class string) error {
	return s.assert(symInstanceOf, ast.String(individual), ast.String(class))
}

// DeclareObjectProperty records object_property(name).
func (s *Snapshot) DeclareObjectProperty(name string) error {
	return s.assert(symObjectProperty, ast.String(name))
}

// DeclareDataProperty records data_property(name).
func (s *Snapshot) DeclareDataProperty(name string) error {
	return s.assert(symDataProperty, ast.String(name))
}

// AssertRelation records relation(property, subject, object).
func (s *Snapshot) AssertRelation(property, subject, object string) error {
	return s.assert(symRelation, ast.String(property), ast.String(subject), ast.String(object))
}

// AssertData records attribute(property, subject, value).
func (s *Snapshot) AssertData(property, subject string, value Literal) error {
	return s.assert(symAttribute, ast.String(property), ast.String(subject), value.Constant())
}

func (s *Snapshot) assert(sym ast.PredicateSym, args ...ast.BaseTerm) error {
	return s.add(ast.Atom{Predicate: sym, Args: args})
}

func (s *Snapshot) add(atom ast.Atom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Contains(atom) {
		return nil
	}
	if s.limit > 0 && s.count >= s.limit {
		return fmt.Errorf("%w: %d", ErrFactLimit, s.limit)
	}
	if s.store.Add(atom) {
		s.count++
	}
	return nil
}

// Contains reports whether the fact predicate(args...) is stored. String
// arguments are matched as names; other values go through LiteralOf.
func (s *Snapshot) Contains(predicate string, args ...any) bool {
	sym := ast.PredicateSym{Symbol: predicate, Arity: len(args)}
	terms := make([]ast.BaseTerm, len(args))
	for i, arg := range args {
		terms[i] = LiteralOf(arg).Constant()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Contains(ast.Atom{Predicate: sym, Args: terms})
}

// Facts returns every stored fact for predicate, sorted by their Datalog form.
func (s *Snapshot) Facts(predicate string) []Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var facts []Fact
	for _, sym := range s.store.ListPredicates() {
		if sym.Symbol != predicate {
			continue
		}
		_ = s.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
			facts = append(facts, atomToFact(atom))
			return nil
		})
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].String() < facts[j].String() })
	return facts
}

// Predicates lists the predicates that currently hold facts.
func (s *Snapshot) Predicates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, sym := range s.store.ListPredicates() {
		if !seen[sym.Symbol] {
			seen[sym.Symbol] = true
			out = append(out, sym.Symbol)
		}
	}
	sort.Strings(out)
	return out
}

// CopyTo adds every stored atom to dst. It is how a reasoner gets a private
// working copy without touching the snapshot.
func (s *Snapshot) CopyTo(dst factstore.FactStore) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sym := range s.store.ListPredicates() {
		_ = s.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
			dst.Add(atom)
			return nil
		})
	}
}

func atomToFact(atom ast.Atom) Fact {
	args := make([]any, len(atom.Args))
	for i, arg := range atom.Args {
		args[i] = TermValue(arg)
	}
	return Fact{Predicate: atom.Predicate.Symbol, Args: args}
}

// TermValue converts a Mangle term to a Go value.
func TermValue(term ast.BaseTerm) any {
	switch v := term.(type) {
	case ast.Constant:
		return constantToInterface(v)
	case ast.Variable:
		return v.Symbol
	default:
		return fmt.Sprintf("%v", term)
	}
}
