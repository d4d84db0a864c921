// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chipsim

import (
	"github.com/pkg/errors"
)

// A Resolver resolves chip names to definitions when building composites.
//
type Resolver interface {
	Lookup(name string) (*Definition, bool)
}

// Definitions is a name indexed set of definitions. It implements Resolver.
//
type Definitions map[string]*Definition

// NewDefinitions returns a Definitions set for defs. If several definitions
// have the same name, the first one wins.
//
func NewDefinitions(defs ...*Definition) Definitions {
	ds := make(Definitions, len(defs))
	for _, d := range defs {
		if _, ok := ds[d.Name]; !ok {
			ds[d.Name] = d
		}
	}
	return ds
}

// Lookup implements Resolver.
//
func (ds Definitions) Lookup(name string) (*Definition, bool) {
	d, ok := ds[name]
	return d, ok
}

// a link is a resolved wire, pending connection.
type link struct {
	src, dst *Signal
	wire     string
	scope    string // name of the definition holding the wire
}

type edge struct {
	to *Signal
	l  *link // nil for NAND edges
}

type builder struct {
	r     Resolver
	stack []string // names of the definitions being expanded
	links []*link
	// wire driving each target signal
	drivers map[*Signal]string
	// signal graph, used for loop detection. NAND gates add a->out and b->out
	// edges, wires add src->dst.
	edges   map[*Signal][]edge
	signals int
	nands   int
}

// Build builds a runnable circuit from a chip definition. Chip instances in d
// (and recursively in their own definitions) are resolved by name using r.
// NAND instances are always built-in and never resolved.
//
// No circuit is returned if any part of d cannot be built.
//
func Build(d *Definition, r Resolver) (*Circuit, error) {
	if r == nil {
		r = Definitions(nil)
	}
	b := &builder{
		r:       r,
		drivers: make(map[*Signal]string),
		edges:   make(map[*Signal][]edge),
	}
	var (
		c   *Circuit
		err error
	)
	if d.IsPrimitive() {
		c, err = b.primitive(d)
	} else {
		c, err = b.build(d)
	}
	if err != nil {
		return nil, err
	}
	if err = b.checkLoops(); err != nil {
		return nil, err
	}
	for _, l := range b.links {
		l.dst.Set(l.src.Get())
		l.src.Subscribe(l.dst.Set)
	}
	c.stats = Stats{Signals: b.signals, Nands: b.nands, Wires: len(b.links)}
	return c, nil
}

// BuildNamed resolves name with r and builds it.
//
func BuildNamed(r Resolver, name string) (*Circuit, error) {
	if name == Nand {
		if d, ok := r.Lookup(name); !ok || d.IsPrimitive() {
			return Build(NandDefinition(), r)
		}
	}
	d, ok := r.Lookup(name)
	if !ok {
		return nil, errors.WithStack(&MissingDefinitionError{Name: name})
	}
	return Build(d, r)
}

func (b *builder) newSignal(v bool) *Signal {
	b.signals++
	return NewSignal(v)
}

func (b *builder) build(d *Definition) (*Circuit, error) {
	for _, n := range b.stack {
		if n == d.Name {
			path := append(append([]string(nil), b.stack...), d.Name)
			return nil, errors.WithStack(&CyclicDefinitionError{Path: path})
		}
	}
	if err := d.Check(); err != nil {
		return nil, err
	}
	b.stack = append(b.stack, d.Name)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	c := newCircuit(d)
	for i := range d.Ports {
		p := &d.Ports[i]
		if p.Direction == In {
			c.inputs[p.ID] = b.newSignal(p.initial())
		} else {
			c.outputs[p.ID] = b.newSignal(p.initial())
		}
	}

	for _, chip := range d.Chips {
		var (
			sub *Circuit
			err error
		)
		if chip.Name == Nand {
			sub = b.nand()
		} else {
			sd, ok := b.r.Lookup(chip.Name)
			if !ok {
				return nil, errors.WithStack(&MissingDefinitionError{Name: chip.Name, ChipID: chip.ID})
			}
			if sub, err = b.build(sd); err != nil {
				return nil, errors.Wrap(err, d.Name+"."+chip.ID)
			}
		}
		c.parts[chip.ID] = sub
	}

	for i := range d.Wires {
		w := &d.Wires[i]
		src := c.source(w)
		if src == nil {
			return nil, errors.WithStack(&InvalidWireSourceError{WireID: w.ID, SourceID: w.SourceID, SourcePortID: w.SourcePortID})
		}
		dst := c.target(w)
		if dst == nil {
			return nil, errors.WithStack(&InvalidWireTargetError{WireID: w.ID, TargetID: w.TargetID, TargetPortID: w.TargetPortID})
		}
		if drv, ok := b.drivers[dst]; ok {
			return nil, errors.WithStack(&MultipleDriversError{WireID: w.ID, Driver: drv, Target: endpoint(w.TargetID, w.TargetPortID)})
		}
		b.drivers[dst] = w.ID
		l := &link{src: src, dst: dst, wire: w.ID, scope: d.Name}
		b.edges[src] = append(b.edges[src], edge{dst, l})
		b.links = append(b.links, l)
	}
	return c, nil
}

// source resolves the source of w within c: own outputs first, then chip
// instance outputs, then own inputs.
func (c *Circuit) source(w *Wire) *Signal {
	if s, ok := c.outputs[w.SourceID]; ok {
		return s
	}
	if sub, ok := c.parts[w.SourceID]; ok {
		return pick(sub.outputs, w.SourcePortID)
	}
	return c.inputs[w.SourceID]
}

// target resolves the target of w within c: own inputs first, then chip
// instance inputs, then own outputs.
func (c *Circuit) target(w *Wire) *Signal {
	if s, ok := c.inputs[w.TargetID]; ok {
		return s
	}
	if sub, ok := c.parts[w.TargetID]; ok {
		return pick(sub.inputs, w.TargetPortID)
	}
	return c.outputs[w.TargetID]
}

// pick returns the signal for port id in m. An empty id selects the only
// signal in m, if any.
func pick(m map[string]*Signal, id string) *Signal {
	if id != "" {
		return m[id]
	}
	if len(m) == 1 {
		for _, s := range m {
			return s
		}
	}
	return nil
}

// checkLoops reports the first feedback loop found in the signal graph.
func (b *builder) checkLoops() error {
	const (
		unvisited = iota
		visiting
		done
	)
	var (
		state = make(map[*Signal]int, len(b.edges))
		// edges followed from the root of the current search
		path []edge
	)
	var visit func(s *Signal) *link
	visit = func(s *Signal) *link {
		state[s] = visiting
		for _, e := range b.edges[s] {
			switch state[e.to] {
			case visiting:
				// walk back the loop up to e.to and return the first wire on it.
				if e.l != nil {
					return e.l
				}
				for i := len(path) - 1; i >= 0; i-- {
					if path[i].l != nil {
						return path[i].l
					}
				}
				panic("feedback loop without wires")
			case unvisited:
				path = append(path, e)
				if l := visit(e.to); l != nil {
					return l
				}
				path = path[:len(path)-1]
			}
		}
		state[s] = done
		return nil
	}
	for _, l := range b.links {
		if state[l.src] != unvisited {
			continue
		}
		if lp := visit(l.src); lp != nil {
			return errors.WithStack(&CyclicWiringError{Definition: lp.scope, WireID: lp.wire})
		}
	}
	return nil
}
