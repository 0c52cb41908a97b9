package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu-w/stars-logic-mtcq/internal/kb"
	"github.com/lu-w/stars-logic-mtcq/internal/query"
	"github.com/lu-w/stars-logic-mtcq/internal/temporal"
)

const twoVehicles = `
simulation_run_id: "1"
blocks:
  - name: b1
    roads:
      - name: r1
        lanes:
          - name: l1
            width: 3.5
ticks:
  - time: 0.0
    vehicles:
      - {id: 0, ego: true, lane: l1, position: 0.0}
      - {id: 1, lane: l1, position: 0.0}
  - time: 0.1
    vehicles:
      - {id: 0, ego: true, lane: l1, position: 1.0}
      - {id: 1, lane: l1, position: 2.0}
  - time: 0.2
    vehicles:
      - {id: 0, ego: true, lane: l1, position: 2.0}
      - {id: 1, lane: l1, position: 4.0}
  - time: 0.3
    vehicles:
      - {id: 0, ego: true, lane: l1, position: 3.0}
      - {id: 1, lane: l1, position: 6.0}
`

const ns = "http://dlr.de/stars/mtcqTestOntology#"

const avTemplate = `
concept("http://dlr.de/stars/mtcqTestOntology#MovableObject").
instance_of(X, "http://dlr.de/stars/mtcqTestOntology#MovableObject") :-
  instance_of(X, "http://dlr.de/stars/mtcqTestOntology#Vehicle").
`

func TestParseBuildsSharedWorld(t *testing.T) {
	seg, err := Parse([]byte(twoVehicles))
	require.NoError(t, err)

	require.Len(t, seg.Ticks, 4)
	assert.Equal(t, "1", seg.SimulationRunID)
	assert.NotEmpty(t, seg.Revision)

	first := seg.Ticks[0].Entities[0]
	last := seg.Ticks[3].Entities[0]
	assert.NotSame(t, first, last, "vehicles are per tick")
	assert.Same(t, first.Lane, last.Lane, "lanes are shared")
	require.NotNil(t, first.Lane.Road)
	require.NotNil(t, first.Lane.Road.Block)
	assert.Same(t, first.Lane.Road, first.Lane.Road.Block.Roads[0])
	assert.Equal(t, 3.0, last.PositionOnLane)
	assert.True(t, first.IsEgo)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("ticks:\n  - vehicles:\n      - {id: 0, lane: nowhere}\n"))
	assert.ErrorIs(t, err, ErrUnknownReference)

	_, err = Parse([]byte(`
blocks:
  - roads:
      - lanes:
          - name: a
          - name: a
`))
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = Parse([]byte("unknown_field: 1\n"))
	assert.Error(t, err)
}

func TestRevisionFollowsContent(t *testing.T) {
	a, err := Parse([]byte(twoVehicles))
	require.NoError(t, err)
	b, err := Parse([]byte(twoVehicles))
	require.NoError(t, err)
	c, err := Parse([]byte(twoVehicles + "\n# edited\n"))
	require.NoError(t, err)

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestLoadDefaultsIDToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-7.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoVehicles), 0o644))

	seg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "run-7", seg.ID)
	assert.Equal(t, path, seg.Source)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInstants(t *testing.T) {
	seg, err := Parse([]byte(twoVehicles))
	require.NoError(t, err)

	instants := seg.Instants(nil)
	require.Len(t, instants, 4)
	assert.Equal(t, "0", instants[0].Label)
	assert.Equal(t, "0.3", instants[3].Label)
	for _, in := range instants {
		assert.Len(t, in.Roots, 2)
	}
}

func TestTypeSet(t *testing.T) {
	set, err := TypeSet([]string{"Road", " Block"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Block", "Road"}, set.Names())

	_, err = TypeSet([]string{"Pedestrian"})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestSegmentEndToEnd(t *testing.T) {
	seg, err := Parse([]byte(twoVehicles))
	require.NoError(t, err)
	tmpl, err := kb.ParseTemplate(avTemplate)
	require.NoError(t, err)
	types, err := TypeSet([]string{"Road", "Block"})
	require.NoError(t, err)

	cache := temporal.NewCache(temporal.Config{Template: tmpl, Prefix: ns, Types: types})
	ev := query.NewEvaluator(query.NewDatalogEngine(), cache)

	q := `
on_lane(X) :-
  instance_of(X, "http://dlr.de/stars/mtcqTestOntology#MovableObject"),
  relation("http://dlr.de/stars/mtcqTestOntology#lane", X, _).
?on_lane(X)
`
	res, err := ev.EvaluateSegment(context.Background(), seg, q)
	require.NoError(t, err)
	assert.True(t, res.Always())
	assert.Len(t, res.Instants[2].Bindings, 2)

	store, err := cache.GetOrAssemble(context.Background(), seg)
	require.NoError(t, err)
	snap := store.Frame(1).Snapshot
	assert.True(t, snap.Contains(kb.PredAttribute, ns+"positionOnLane", ns+"Vehicle_1", 2.0))
	assert.True(t, snap.Contains(kb.PredConcept, ns+"Road"))
	assert.True(t, snap.Contains(kb.PredConcept, ns+"Block"))
	assert.Len(t, snap.Facts(kb.PredIndividual), 5, "two vehicles, lane, road, block")

	holds, err := ev.Holds(context.Background(), seg, `?instance_of(X, "http://dlr.de/stars/mtcqTestOntology#Road")`)
	require.NoError(t, err)
	assert.True(t, holds)
}
