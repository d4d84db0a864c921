// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package chiplib provides the built-in chip definitions: the NAND primitive
// and standard gates built from it.
//
//	NAND  Inputs: a, b       Outputs: out   Function: out = !(a && b)
//	NOT   Inputs: in         Outputs: out   Function: out = !in
//	AND   Inputs: a, b       Outputs: out   Function: out = a && b
//	OR    Inputs: a, b       Outputs: out   Function: out = a || b
//	NOR   Inputs: a, b       Outputs: out   Function: out = !(a || b)
//	XOR   Inputs: a, b       Outputs: out   Function: out = a != b
//	XNOR  Inputs: a, b       Outputs: out   Function: out = a == b
//	MUX   Inputs: a, b, sel  Outputs: out   Function: if sel { out = b } else { out = a }
//	DMUX  Inputs: in, sel    Outputs: a, b  Function: if sel { a, b = false, in } else { a, b = in, false }
//
// Arithmetic:
//
//	HALFADDER  Inputs: a, b       Outputs: s, c     Function: s = lsb(a + b), c = msb(a + b)
//	FULLADDER  Inputs: a, b, cin  Outputs: s, cout  Function: s = lsb(a + b + cin), cout = msb(a + b + cin)
//
package chiplib

import (
	"bytes"
	_ "embed"
	"sync"

	"github.com/db47h/chipsim"
	"github.com/db47h/chipsim/catalog"
)

//go:embed gates.yaml
var gatesYAML []byte

var (
	once  sync.Once
	gates []*chipsim.Definition
)

func load() {
	ds, err := catalog.LoadYAML(bytes.NewReader(gatesYAML))
	if err != nil {
		panic(err)
	}
	gates = ds
}

// Builtins returns new copies of all built-in definitions, NAND first.
//
func Builtins() []*chipsim.Definition {
	once.Do(load)
	ds := make([]*chipsim.Definition, len(gates))
	for i, d := range gates {
		ds[i] = d.Clone()
	}
	return ds
}

// Definitions returns the built-in definitions as a chipsim.Resolver.
//
func Definitions() chipsim.Definitions {
	return chipsim.NewDefinitions(Builtins()...)
}
