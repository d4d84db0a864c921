// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chipsim

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Nand is the name of the only primitive chip. Every other chip is a
// composite that eventually expands to NAND gates.
//
const Nand = "NAND"

// NAND pin ids.
//
const (
	PinA   = "a"
	PinB   = "b"
	PinOut = "out"
)

// Direction is the direction of a port.
//
type Direction int

// Port directions.
//
const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "OUT"
	}
	return "IN"
}

// MarshalText implements encoding.TextMarshaler.
//
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (d *Direction) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "IN", "INPUT":
		*d = In
	case "OUT", "OUTPUT":
		*d = Out
	default:
		return errors.Errorf("invalid port direction %q", b)
	}
	return nil
}

// A Port is a named input or output terminal of a chip definition.
//
// Value is the initial value of the port. A nil Value means false.
//
type Port struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Direction Direction `json:"direction" yaml:"direction"`
	Value     *bool     `json:"value,omitempty" yaml:"value,omitempty"`
}

func (p *Port) initial() bool {
	return p.Value != nil && *p.Value
}

// A Chip is the placement of a chip definition inside a composite. The
// definition is referenced by name and resolved when the composite is built.
//
type Chip struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// A Wire connects a source terminal to a target terminal.
//
// SourceID and TargetID are either the id of a port of the enclosing
// definition or the id of a chip instance. In the latter case, SourcePortID and
// TargetPortID select the port of that instance. They may be left empty if the
// instance has exactly one port in the relevant direction.
//
type Wire struct {
	ID           string `json:"id" yaml:"id"`
	SourceID     string `json:"sourceId" yaml:"sourceId"`
	SourcePortID string `json:"sourcePortId,omitempty" yaml:"sourcePortId,omitempty"`
	TargetID     string `json:"targetId" yaml:"targetId"`
	TargetPortID string `json:"targetPortId,omitempty" yaml:"targetPortId,omitempty"`
}

func (w *Wire) String() string {
	return endpoint(w.SourceID, w.SourcePortID) + " -> " + endpoint(w.TargetID, w.TargetPortID)
}

func endpoint(id, port string) string {
	if port == "" {
		return id
	}
	return id + "." + port
}

// A Definition is the blueprint of a chip: its external ports and, for
// composites, the chips and wires it is made of.
//
// Color and the metadata fields are carried along for the callers and play no
// part in evaluation.
//
type Definition struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Color     string    `json:"color,omitempty" yaml:"color,omitempty"`
	Ports     []Port    `json:"ports" yaml:"ports"`
	Chips     []Chip    `json:"chips,omitempty" yaml:"chips,omitempty"`
	Wires     []Wire    `json:"wires,omitempty" yaml:"wires,omitempty"`
	Version   int       `json:"version,omitempty" yaml:"version,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
}

// IsPrimitive returns true if d is the built-in NAND gate.
//
func (d *Definition) IsPrimitive() bool {
	return d.Name == Nand && len(d.Chips) == 0 && len(d.Wires) == 0
}

// Inputs returns the input ports of d in declaration order.
//
func (d *Definition) Inputs() []Port { return d.ports(In) }

// Outputs returns the output ports of d in declaration order.
//
func (d *Definition) Outputs() []Port { return d.ports(Out) }

func (d *Definition) ports(dir Direction) []Port {
	var ps []Port
	for _, p := range d.Ports {
		if p.Direction == dir {
			ps = append(ps, p)
		}
	}
	return ps
}

// Clone returns a deep copy of d.
//
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	c := *d
	if d.Ports != nil {
		c.Ports = make([]Port, len(d.Ports))
		for i, p := range d.Ports {
			if p.Value != nil {
				v := *p.Value
				p.Value = &v
			}
			c.Ports[i] = p
		}
	}
	if d.Chips != nil {
		c.Chips = append([]Chip(nil), d.Chips...)
	}
	if d.Wires != nil {
		c.Wires = append([]Wire(nil), d.Wires...)
	}
	return &c
}

// Check verifies that port, chip and wire ids are not empty and unique within
// d, and that chip instances do not reuse the id of a port.
//
func (d *Definition) Check() error {
	if d.Name == "" {
		return errors.New("empty definition name")
	}
	ids := make(map[string]string)
	add := func(kind, id string) error {
		if id == "" {
			return errors.Errorf("%s: empty %s id", d.Name, kind)
		}
		if k, ok := ids[id]; ok {
			return errors.Errorf("%s: %s id %q already used by a %s", d.Name, kind, id, k)
		}
		ids[id] = kind
		return nil
	}
	for i := range d.Ports {
		if err := add("port", d.Ports[i].ID); err != nil {
			return err
		}
	}
	for i := range d.Chips {
		if err := add("chip", d.Chips[i].ID); err != nil {
			return err
		}
		if d.Chips[i].Name == "" {
			return errors.Errorf("%s: chip %s has no name", d.Name, d.Chips[i].ID)
		}
	}
	wires := make(map[string]struct{}, len(d.Wires))
	for i := range d.Wires {
		id := d.Wires[i].ID
		if id == "" {
			return errors.Errorf("%s: empty wire id", d.Name)
		}
		if _, ok := wires[id]; ok {
			return errors.Errorf("%s: duplicate wire id %q", d.Name, id)
		}
		wires[id] = struct{}{}
	}
	return nil
}
