// Package scenario holds the automated-driving data model that recorded
// simulation runs are loaded into, and turns segments of it into instants
// for assembly.
package scenario

import (
	"reflect"
	"strconv"

	"github.com/lu-w/stars-logic-mtcq/internal/convert"
	"github.com/lu-w/stars-logic-mtcq/internal/temporal"
)

// Vehicle is an actor observed at one tick. Vehicles are recreated per tick;
// the id keeps them the same individual across ticks.
type Vehicle struct {
	ID             int
	IsEgo          bool
	PositionOnLane float64
	Velocity       float64
	Lane           *Lane
}

func (Vehicle) DLConvertible() {}

// Lane is part of the static world and has no id of its own.
type Lane struct {
	Width      float64
	SpeedLimit float64
	Road       *Road
}

func (*Lane) DLConvertible() {}

// Road groups lanes. It is not marked; admit it through a TypeSet.
type Road struct {
	IsJunction bool
	Lanes      []*Lane
	Block      *Block
}

// Block groups roads.
type Block struct {
	Roads []*Road
}

// TickData is everything observed at one tick.
type TickData struct {
	CurrentTick float64
	Entities    []*Vehicle
}

// Label renders the tick time.
func (t *TickData) Label() string {
	return strconv.FormatFloat(t.CurrentTick, 'f', -1, 64)
}

// Segment is a contiguous slice of a simulation run.
type Segment struct {
	ID              string
	Source          string
	SimulationRunID string
	Ticks           []*TickData
	// Revision changes whenever the content does.
	Revision string
}

var _ temporal.Source = (*Segment)(nil)

// Key identifies the segment's content for caching.
func (s *Segment) Key() string {
	return s.ID + "@" + s.Revision
}

// Instants returns one instant per tick, with the tick's mappable values as
// roots.
func (s *Segment) Instants(types convert.TypeSet) []temporal.Instant {
	instants := make([]temporal.Instant, len(s.Ticks))
	for i, tick := range s.Ticks {
		instants[i] = temporal.Instant{Label: tick.Label(), Roots: convert.Roots(tick, types)}
	}
	return instants
}

// Types lists the model types by name, for resolving configured type sets.
var Types = map[string]reflect.Type{
	"Vehicle": reflect.TypeOf(Vehicle{}),
	"Lane":    reflect.TypeOf(Lane{}),
	"Road":    reflect.TypeOf(Road{}),
	"Block":   reflect.TypeOf(Block{}),
}
