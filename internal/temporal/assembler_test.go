package temporal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu-w/stars-logic-mtcq/internal/convert"
	"github.com/lu-w/stars-logic-mtcq/internal/kb"
)

const prefix = "http://example.org/av#"

type car struct {
	ID             string
	PositionOnLane float64
}

func (car) DLConvertible() {}

type anonymousLane struct {
	Width float64
}

func (*anonymousLane) DLConvertible() {}

const template = `
concept("http://example.org/av#MovableObject").
instance_of(X, "http://example.org/av#MovableObject") :- instance_of(X, "http://example.org/av#car").
`

func mustTemplate(t *testing.T) *kb.Snapshot {
	t.Helper()
	snap, err := kb.ParseTemplate(template)
	require.NoError(t, err)
	return snap
}

// fourTicks builds four instants with two cars each; the cars keep their ids
// across ticks while their positions change.
func fourTicks() []Instant {
	var out []Instant
	for tick := 0; tick < 4; tick++ {
		out = append(out, Instant{
			Label: strconv.FormatFloat(float64(tick)*0.1, 'f', 1, 64),
			Roots: []any{
				&car{ID: "ego", PositionOnLane: float64(tick)},
				&car{ID: "other", PositionOnLane: 10 + float64(tick)},
			},
		})
	}
	return out
}

func TestAssembleFourInstantsTwoCars(t *testing.T) {
	tmpl := mustTemplate(t)
	store, err := Assemble(context.Background(), Config{Template: tmpl, Prefix: prefix}, fourTicks())
	require.NoError(t, err)
	require.Equal(t, 4, store.Len())
	assert.Equal(t, []string{"0.0", "0.1", "0.2", "0.3"}, store.Labels())

	for i, frame := range store.Frames() {
		snap := frame.Snapshot
		assert.True(t, snap.Contains(kb.PredIndividual, prefix+"car_ego"), "frame %d", i)
		assert.True(t, snap.Contains(kb.PredIndividual, prefix+"car_other"), "frame %d", i)
		assert.True(t, snap.Contains(kb.PredAttribute, prefix+"positionOnLane", prefix+"car_ego", float64(i)))
		assert.False(t, snap.Contains(kb.PredAttribute, prefix+"positionOnLane", prefix+"car_ego", float64(i+1)),
			"frame %d must not see the next tick", i)
		assert.True(t, snap.Contains(kb.PredConcept, prefix+"MovableObject"), "template facts are cloned in")
	}

	// The template itself is untouched.
	assert.False(t, tmpl.Contains(kb.PredIndividual, prefix+"car_ego"))
}

func TestAssembleEmpty(t *testing.T) {
	store, err := Assemble(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestAssembleInstantWithoutRootsIsTemplateCopy(t *testing.T) {
	tmpl := mustTemplate(t)
	store, err := Assemble(context.Background(), Config{Template: tmpl}, []Instant{{Label: "0"}})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
	assert.Equal(t, tmpl.Len(), store.Frame(0).Snapshot.Len())
	assert.NotSame(t, tmpl, store.Frame(0).Snapshot)
}

func TestAssembleWorkersPreserveOrder(t *testing.T) {
	var instants []Instant
	for i := 0; i < 32; i++ {
		instants = append(instants, Instant{
			Label: fmt.Sprintf("t%02d", i),
			Roots: []any{&car{ID: fmt.Sprintf("c%d", i)}},
		})
	}

	store, err := Assemble(context.Background(), Config{Prefix: prefix, Workers: 4}, instants)
	require.NoError(t, err)
	require.Equal(t, len(instants), store.Len())
	for i, frame := range store.Frames() {
		assert.Equal(t, instants[i].Label, frame.Label)
		assert.True(t, frame.Snapshot.Contains(kb.PredIndividual, fmt.Sprintf("%scar_c%d", prefix, i)))
	}
}

func TestAssemblePropagatesMappingErrors(t *testing.T) {
	instants := []Instant{
		{Label: "0", Roots: []any{&car{ID: "a"}}},
		{Label: "1", Roots: []any{&car{ID: "dup"}, &car{ID: "dup"}}},
	}
	for _, workers := range []int{0, 3} {
		_, err := Assemble(context.Background(), Config{Workers: workers}, instants)
		require.Error(t, err)
		assert.ErrorIs(t, err, convert.ErrDuplicateIdentity)
	}
}

func TestAssembleStrictIdentity(t *testing.T) {
	instants := []Instant{{Label: "0", Roots: []any{&anonymousLane{Width: 3}}}}

	_, err := Assemble(context.Background(), Config{}, instants)
	require.NoError(t, err)

	_, err = Assemble(context.Background(), Config{StrictIdentity: true}, instants)
	assert.ErrorIs(t, err, convert.ErrMissingIdentity)
}

func TestAssembleFactLimit(t *testing.T) {
	tmpl := kb.NewSnapshot(kb.WithFactLimit(3))
	_, err := Assemble(context.Background(), Config{Template: tmpl}, fourTicks())
	assert.True(t, errors.Is(err, kb.ErrFactLimit))
}

func TestAssembleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Assemble(ctx, Config{}, fourTicks())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Assemble(ctx, Config{Workers: 2}, fourTicks())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssembleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = Assemble(context.Background(), Config{Metrics: m}, fourTicks())
	require.NoError(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.snapshots))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	again, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, m.snapshots, again.snapshots)
}
