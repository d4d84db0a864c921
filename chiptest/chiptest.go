// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package chiptest provides utility functions for testing chip definitions.
//
package chiptest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/chipsim"
)

// maximum input count for exhaustive testing
const maxExhaustive = 12

// vector sets the inputs of v from the bits of n. The first input is the most
// significant bit.
func vector(v []bool, n uint64) {
	for bit := range v {
		v[len(v)-bit-1] = n&(1<<uint(bit)) != 0
	}
}

func set(t testing.TB, c *chipsim.Circuit, ids []string, v []bool) {
	t.Helper()
	for i, id := range ids {
		if err := c.SetInput(id, v[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func get(t testing.TB, c *chipsim.Circuit, ids []string) []bool {
	t.Helper()
	out := make([]bool, len(ids))
	for i, id := range ids {
		v, err := c.Output(id)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = v
	}
	return out
}

func describe(ids []string, v []bool) string {
	var b strings.Builder
	for i, id := range ids {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", id, v[i])
	}
	return b.String()
}

// TruthTable checks the outputs of c for all input combinations.
// result[o][i] is the expected value of output o for input combination i,
// where the first input is the most significant bit of i.
//
func TruthTable(t testing.TB, c *chipsim.Circuit, result [][]bool) {
	t.Helper()
	Check(t, c, func(in []bool) []bool {
		var n int
		for _, v := range in {
			n <<= 1
			if v {
				n |= 1
			}
		}
		out := make([]bool, len(result))
		for o := range result {
			out[o] = result[o][n]
		}
		return out
	})
}

// Check compares the outputs of c to those of f for all input combinations.
// f receives the inputs in declaration order and must return the outputs in
// declaration order.
//
func Check(t testing.TB, c *chipsim.Circuit, f func(in []bool) []bool) {
	t.Helper()
	ins, outs := c.Inputs(), c.Outputs()
	if len(ins) > maxExhaustive {
		t.Fatalf("%s: too many inputs for exhaustive testing: %d", c.Definition().Name, len(ins))
	}
	in := make([]bool, len(ins))
	for n := uint64(0); n < 1<<uint(len(ins)); n++ {
		vector(in, n)
		set(t, c, ins, in)
		got, exp := get(t, c, outs), f(in)
		for o := range outs {
			if got[o] != exp[o] {
				t.Errorf("%s %s: expected %s=%v, got %v", c.Definition().Name, describe(ins, in), outs[o], exp[o], got[o])
			}
		}
	}
}

// Compare builds d1 and d2 and compares their outputs given the same inputs.
// Both definitions must have the same input and output port ids.
//
// Circuits with up to 12 inputs are tested exhaustively. Others are tested
// with all inputs false, all inputs true, then random inputs.
//
func Compare(t testing.TB, r chipsim.Resolver, d1, d2 *chipsim.Definition) {
	t.Helper()
	c1, err := chipsim.Build(d1, r)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := chipsim.Build(d2, r)
	if err != nil {
		t.Fatal(err)
	}

	ins, outs := c1.Inputs(), c1.Outputs()
	if s1, s2 := strings.Join(ins, ","), strings.Join(c2.Inputs(), ","); s1 != s2 {
		t.Fatalf("inputs %s != %s", s1, s2)
	}
	if s1, s2 := strings.Join(outs, ","), strings.Join(c2.Outputs(), ","); s1 != s2 {
		t.Fatalf("outputs %s != %s", s1, s2)
	}

	in := make([]bool, len(ins))
	cmp := func() {
		t.Helper()
		set(t, c1, ins, in)
		set(t, c2, ins, in)
		o1, o2 := get(t, c1, outs), get(t, c2, outs)
		for o := range outs {
			if o1[o] != o2[o] {
				t.Fatalf("\n%s => %s.%s=%v, %s.%s=%v", describe(ins, in), d1.Name, outs[o], o1[o], d2.Name, outs[o], o2[o])
			}
		}
	}

	start := time.Now()
	iter := 0
	if len(ins) <= maxExhaustive {
		for n := uint64(0); n < 1<<uint(len(ins)); n++ {
			vector(in, n)
			cmp()
			iter++
		}
	} else {
		seed := time.Now().UnixNano()
		rnd := rand.New(rand.NewSource(seed))
		t.Logf("random seed %d", seed)
		cmp()
		for i := range in {
			in[i] = true
		}
		cmp()
		for ; iter < 1<<maxExhaustive; iter++ {
			for i := range in {
				in[i] = rnd.Int63()&(1<<62) != 0
			}
			cmp()
		}
		iter += 2
	}
	t.Logf("%s: %d NAND gates, %s: %d NAND gates. %d input vectors in %v", d1.Name, c1.Stats().Nands, d2.Name, c2.Stats().Nands, iter, time.Since(start))
}
