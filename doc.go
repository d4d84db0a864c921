// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package chipsim evaluates combinational logic circuits built from NAND gates.

A chip is described by a Definition: a set of input and output ports, plus
for composite chips, the chips it is made of and the wires connecting them.
Chip instances reference other definitions by name. The only primitive is
the NAND gate; every other chip eventually expands to NAND gates.

Build expands a definition into a Circuit of live signals. Setting an input
synchronously propagates the change until every signal is settled:

	not := &chipsim.Definition{
		Name: "NOT",
		Ports: []chipsim.Port{
			{ID: "in", Name: "in", Direction: chipsim.In},
			{ID: "out", Name: "out", Direction: chipsim.Out},
		},
		Chips: []chipsim.Chip{{ID: "n0", Name: chipsim.Nand}},
		Wires: []chipsim.Wire{
			{ID: "w0", SourceID: "in", TargetID: "n0", TargetPortID: "a"},
			{ID: "w1", SourceID: "in", TargetID: "n0", TargetPortID: "b"},
			{ID: "w2", SourceID: "n0", TargetID: "out"},
		},
	}
	c, err := chipsim.Build(not, nil)
	if err != nil {
		// ...
	}
	c.SetInput("in", true)
	out, _ := c.Output("out") // false

Composite chips are resolved through a Resolver; package catalog provides a
persistent one and package chiplib the standard gates.

Circuits are purely combinational: feedback loops and targets driven by more
than one wire are rejected by Build.
*/
package chipsim
