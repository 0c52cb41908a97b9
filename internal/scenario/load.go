package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownReference means a vehicle names a lane that no road declares.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrDuplicateName means two lanes share a name.
	ErrDuplicateName = errors.New("duplicate name")
)

// revisionSpace namespaces content-derived revisions.
var revisionSpace = uuid.MustParse("6f1c1b9e-6a4f-4b0e-9d55-3c1f6a2b7d10")

type segmentDoc struct {
	ID              string     `yaml:"id"`
	Source          string     `yaml:"source"`
	SimulationRunID string     `yaml:"simulation_run_id"`
	Blocks          []blockDoc `yaml:"blocks"`
	Ticks           []tickDoc  `yaml:"ticks"`
}

type blockDoc struct {
	Name  string    `yaml:"name"`
	Roads []roadDoc `yaml:"roads"`
}

type roadDoc struct {
	Name     string    `yaml:"name"`
	Junction bool      `yaml:"junction"`
	Lanes    []laneDoc `yaml:"lanes"`
}

type laneDoc struct {
	Name       string  `yaml:"name"`
	Width      float64 `yaml:"width"`
	SpeedLimit float64 `yaml:"speed_limit"`
}

type tickDoc struct {
	Time     float64      `yaml:"time"`
	Vehicles []vehicleDoc `yaml:"vehicles"`
}

type vehicleDoc struct {
	ID       int     `yaml:"id"`
	Ego      bool    `yaml:"ego"`
	Lane     string  `yaml:"lane"`
	Position float64 `yaml:"position"`
	Velocity float64 `yaml:"velocity"`
}

// Load reads a segment file. The segment id defaults to the file name
// without extension.
func Load(path string) (*Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	seg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if seg.ID == "" {
		seg.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if seg.Source == "" {
		seg.Source = path
	}
	return seg, nil
}

// Parse decodes a segment document. The static world (blocks, roads, lanes)
// is built once and shared by all ticks; vehicles are created per tick and
// refer to lanes by name.
func Parse(data []byte) (*Segment, error) {
	var doc segmentDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	lanes := make(map[string]*Lane)
	for _, bd := range doc.Blocks {
		block := &Block{}
		for _, rd := range bd.Roads {
			road := &Road{IsJunction: rd.Junction, Block: block}
			for _, ld := range rd.Lanes {
				if _, dup := lanes[ld.Name]; dup {
					return nil, fmt.Errorf("%w: lane %q", ErrDuplicateName, ld.Name)
				}
				lane := &Lane{Width: ld.Width, SpeedLimit: ld.SpeedLimit, Road: road}
				road.Lanes = append(road.Lanes, lane)
				if ld.Name != "" {
					lanes[ld.Name] = lane
				}
			}
			block.Roads = append(block.Roads, road)
		}
	}

	seg := &Segment{
		ID:              doc.ID,
		Source:          doc.Source,
		SimulationRunID: doc.SimulationRunID,
		Revision:        uuid.NewSHA1(revisionSpace, data).String(),
	}
	for i, td := range doc.Ticks {
		tick := &TickData{CurrentTick: td.Time}
		for _, vd := range td.Vehicles {
			v := &Vehicle{
				ID:             vd.ID,
				IsEgo:          vd.Ego,
				PositionOnLane: vd.Position,
				Velocity:       vd.Velocity,
			}
			if vd.Lane != "" {
				lane, ok := lanes[vd.Lane]
				if !ok {
					return nil, fmt.Errorf("tick %d: vehicle %d: %w: lane %q", i, vd.ID, ErrUnknownReference, vd.Lane)
				}
				v.Lane = lane
			}
			tick.Entities = append(tick.Entities, v)
		}
		seg.Ticks = append(seg.Ticks, tick)
	}
	return seg, nil
}
