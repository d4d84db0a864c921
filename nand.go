// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chipsim

import "github.com/pkg/errors"

// NandDefinition returns a new definition for the primitive NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a && b)
//
func NandDefinition() *Definition {
	return &Definition{
		ID:    "nand",
		Name:  Nand,
		Color: "#3b82f6",
		Ports: []Port{
			{ID: PinA, Name: PinA, Direction: In},
			{ID: PinB, Name: PinB, Direction: In},
			{ID: PinOut, Name: PinOut, Direction: Out},
		},
	}
}

var nandDef = NandDefinition()

// nand returns a NAND instance with the output already settled.
func (b *builder) nand() *Circuit {
	a, bb := b.newSignal(false), b.newSignal(false)
	out := b.newSignal(true)
	b.nands++
	update := func(bool) { out.Set(!(a.Get() && bb.Get())) }
	a.Subscribe(update)
	bb.Subscribe(update)
	b.edges[a] = append(b.edges[a], edge{to: out})
	b.edges[bb] = append(b.edges[bb], edge{to: out})

	c := newCircuit(nandDef)
	c.inputs[PinA], c.inputs[PinB] = a, bb
	c.outputs[PinOut] = out
	return c
}

// primitive builds a stand-alone NAND gate from d, keeping the port ids of d.
func (b *builder) primitive(d *Definition) (*Circuit, error) {
	ins, outs := d.Inputs(), d.Outputs()
	if len(ins) != 2 || len(outs) != 1 {
		return nil, errors.Errorf("%s: primitive must have 2 inputs and 1 output, got %d and %d", d.Name, len(ins), len(outs))
	}
	n := b.nand()
	c := newCircuit(d)
	c.inputs[ins[0].ID] = n.inputs[PinA]
	c.inputs[ins[1].ID] = n.inputs[PinB]
	c.outputs[outs[0].ID] = n.outputs[PinOut]
	// honor initial values
	c.inputs[ins[0].ID].Set(ins[0].initial())
	c.inputs[ins[1].ID].Set(ins[1].initial())
	return c, nil
}
