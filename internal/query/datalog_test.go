package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lu-w/stars-logic-mtcq/internal/kb"
	"github.com/lu-w/stars-logic-mtcq/internal/temporal"
)

const av = "http://example.org/av#"

type car struct {
	ID    string
	IsEgo bool
}

func (car) DLConvertible() {}

const template = `
concept("http://example.org/av#MovableObject").
instance_of(X, "http://example.org/av#MovableObject") :-
  instance_of(X, "http://example.org/av#car").
`

// threeTicks has the ego car at every tick and the other car only at the
// second one.
func threeTicks(t *testing.T) *temporal.Store {
	t.Helper()
	tmpl, err := kb.ParseTemplate(template)
	require.NoError(t, err)

	instants := []temporal.Instant{
		{Label: "0.0", Roots: []any{&car{ID: "ego", IsEgo: true}}},
		{Label: "0.1", Roots: []any{&car{ID: "ego", IsEgo: true}, &car{ID: "other"}}},
		{Label: "0.2", Roots: []any{&car{ID: "ego", IsEgo: true}}},
	}
	store, err := temporal.Assemble(context.Background(), temporal.Config{Template: tmpl, Prefix: av}, instants)
	require.NoError(t, err)
	return store
}

func TestDatalogSubsumptionViaTemplateRule(t *testing.T) {
	store := threeTicks(t)
	res, err := NewDatalogEngine().Execute(context.Background(), store,
		`?instance_of(X, "http://example.org/av#MovableObject")`)
	require.NoError(t, err)

	require.Len(t, res.Instants, 3)
	assert.Equal(t, []Binding{{"X": av + "car_ego"}}, res.Instants[0].Bindings)
	assert.ElementsMatch(t, []Binding{{"X": av + "car_ego"}, {"X": av + "car_other"}}, res.Instants[1].Bindings)
	assert.True(t, res.Always())

	// Derivation happened on copies.
	for _, frame := range store.Frames() {
		assert.False(t, frame.Snapshot.Contains(kb.PredInstanceOf, av+"car_ego", av+"MovableObject"))
	}
}

func TestDatalogQueryRules(t *testing.T) {
	store := threeTicks(t)
	q := `
other_vehicle(X) :-
  instance_of(X, "http://example.org/av#car"),
  attribute("http://example.org/av#isEgo", X, /false).
?other_vehicle(X)
`
	res, err := NewDatalogEngine().Execute(context.Background(), store, q)
	require.NoError(t, err)

	assert.False(t, res.Always())
	assert.True(t, res.Eventually())
	assert.Equal(t, 1, res.FirstHolding())
	assert.False(t, res.HoldsAt(0))
	assert.True(t, res.HoldsAt(1))
	assert.Equal(t, []Binding{{"X": av + "car_other"}}, res.Instants[1].Bindings)
	assert.Equal(t, "0.1", res.Instants[1].Label)
}

func TestDatalogGroundGoal(t *testing.T) {
	store := threeTicks(t)
	res, err := NewDatalogEngine().Execute(context.Background(), store,
		`?instance_of("http://example.org/av#car_other", _)`)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false},
		[]bool{res.HoldsAt(0), res.HoldsAt(1), res.HoldsAt(2)})
}

func TestDatalogRepeatedVariableMustAgree(t *testing.T) {
	store := threeTicks(t)
	res, err := NewDatalogEngine().Execute(context.Background(), store, `?relation(P, X, X)`)
	require.NoError(t, err)
	assert.False(t, res.Eventually())
}

func TestDatalogErrors(t *testing.T) {
	store := threeTicks(t)
	engine := NewDatalogEngine()

	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"empty", "   \n", ErrMalformedQuery},
		{"no goal line", `foo(X) :- concept(X).`, ErrMalformedQuery},
		{"bad goal", `?instance_of(X`, ErrMalformedQuery},
		{"bad rules", "foo(X) :- .\n?foo(X)", ErrMalformedQuery},
		{"unknown predicate", `?no_such_thing(X)`, ErrUnknownPredicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Execute(context.Background(), store, tt.query)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDatalogTimeout(t *testing.T) {
	store := threeTicks(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := NewDatalogEngine(WithTimeout(time.Second)).Execute(ctx, store, `?concept(X)`)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDatalogTimeoutDrainsRunningFrame(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var src strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&src, "edge(%d, %d).\n", i, i+1)
	}
	src.WriteString("reach(X, Y) :- edge(X, Y).\n")
	src.WriteString("reach(X, Z) :- reach(X, Y), edge(Y, Z).\n")
	src.WriteString("?reach(0, X)\n")

	_, err := NewDatalogEngine(WithTimeout(time.Millisecond)).
		Execute(context.Background(), threeTicks(t), src.String())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDatalogEmptyStore(t *testing.T) {
	res, err := NewDatalogEngine().Execute(context.Background(), temporal.NewStore(nil), `?concept(X)`)
	require.NoError(t, err)
	assert.Empty(t, res.Instants)
	assert.False(t, res.Always())
	assert.False(t, res.Eventually())
}

func TestParseVariables(t *testing.T) {
	q, err := Parse("# comment\n?relation(P, X, _)\n\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "X"}, q.Variables())
	assert.Equal(t, "relation", q.Goal.Predicate.Symbol)
}
