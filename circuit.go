// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chipsim

import (
	"github.com/pkg/errors"
)

// Stats holds the size of a built circuit.
//
type Stats struct {
	Signals int // signal count, including every nested port
	Nands   int // NAND gate count
	Wires   int // connected wires
}

// Circuit is a live instance of a chip definition, as returned by Build.
//
// Setting an input propagates the change through the whole circuit before
// SetInput returns. A Circuit is not safe for concurrent use.
//
type Circuit struct {
	def     *Definition
	inputs  map[string]*Signal
	outputs map[string]*Signal
	parts   map[string]*Circuit // chip instances by id
	stats   Stats

	subs    map[int]func() // Subscribe cancel funcs
	nextSub int
}

func newCircuit(d *Definition) *Circuit {
	return &Circuit{
		def:     d,
		inputs:  make(map[string]*Signal),
		outputs: make(map[string]*Signal),
		parts:   make(map[string]*Circuit),
	}
}

// Definition returns the definition c was built from. It must not be
// modified.
//
func (c *Circuit) Definition() *Definition { return c.def }

// Stats returns size information for c.
//
func (c *Circuit) Stats() Stats { return c.stats }

// Inputs returns the ids of the input ports of c, in declaration order.
//
func (c *Circuit) Inputs() []string { return portIDs(c.def.Inputs()) }

// Outputs returns the ids of the output ports of c, in declaration order.
//
func (c *Circuit) Outputs() []string { return portIDs(c.def.Outputs()) }

func portIDs(ps []Port) []string {
	ids := make([]string, len(ps))
	for i := range ps {
		ids[i] = ps[i].ID
	}
	return ids
}

// Part returns the instance of chip id in c, or nil if there is no such chip.
// Parts can be used to inspect signals deep inside a circuit. Their inputs
// are driven by c and must not be set directly.
//
func (c *Circuit) Part(id string) *Circuit {
	return c.parts[id]
}

// SetInput sets the value of input port id and propagates the change.
//
func (c *Circuit) SetInput(id string, v bool) error {
	s, ok := c.inputs[id]
	if !ok {
		return errors.WithStack(&UnknownPortError{PortID: id})
	}
	s.Set(v)
	return nil
}

// Output returns the current value of output port id.
//
func (c *Circuit) Output(id string) (bool, error) {
	s, ok := c.outputs[id]
	if !ok {
		return false, errors.WithStack(&UnknownPortError{PortID: id})
	}
	return s.Get(), nil
}

// Value returns the current value of port id, input or output.
//
func (c *Circuit) Value(id string) (bool, error) {
	s, err := c.port(id)
	if err != nil {
		return false, err
	}
	return s.Get(), nil
}

func (c *Circuit) port(id string) (*Signal, error) {
	if s, ok := c.inputs[id]; ok {
		return s, nil
	}
	if s, ok := c.outputs[id]; ok {
		return s, nil
	}
	return nil, errors.WithStack(&UnknownPortError{PortID: id})
}

// Subscribe calls fn with the current value of port id, then again on every
// change until the returned function is called. Port id can be an input or
// an output.
//
func (c *Circuit) Subscribe(id string, fn func(v bool)) (unsubscribe func(), err error) {
	s, err := c.port(id)
	if err != nil {
		return nil, err
	}
	fn(s.Get())
	cancel := s.Subscribe(fn)
	if c.subs == nil {
		c.subs = make(map[int]func())
	}
	n := c.nextSub
	c.nextSub++
	c.subs[n] = cancel
	return func() {
		cancel()
		delete(c.subs, n)
	}, nil
}

// Close cancels all subscriptions made with Subscribe.
//
func (c *Circuit) Close() {
	for _, cancel := range c.subs {
		cancel()
	}
	c.subs = nil
}

// Eval sets the given inputs, then returns the value of all outputs.
//
func (c *Circuit) Eval(in map[string]bool) (map[string]bool, error) {
	for id := range in {
		if _, ok := c.inputs[id]; !ok {
			return nil, errors.WithStack(&UnknownPortError{PortID: id})
		}
	}
	for id, v := range in {
		c.inputs[id].Set(v)
	}
	out := make(map[string]bool, len(c.outputs))
	for id, s := range c.outputs {
		out[id] = s.Get()
	}
	return out, nil
}
