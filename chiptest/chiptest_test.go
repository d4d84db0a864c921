package chiptest_test

import (
	"testing"

	"github.com/db47h/chipsim"
	"github.com/db47h/chipsim/chiplib"
	"github.com/db47h/chipsim/chiptest"
)

func TestCompare(t *testing.T) {
	defs := chiplib.Definitions()
	// OR from three NANDs, wires in long form.
	or := &chipsim.Definition{
		Name: "custom_or",
		Ports: []chipsim.Port{
			{ID: "a", Name: "a", Direction: chipsim.In},
			{ID: "b", Name: "b", Direction: chipsim.In},
			{ID: "out", Name: "out", Direction: chipsim.Out},
		},
		Chips: []chipsim.Chip{{ID: "notA", Name: "NAND"}, {ID: "notB", Name: "NAND"}, {ID: "n", Name: "NAND"}},
		Wires: []chipsim.Wire{
			{ID: "0", SourceID: "a", TargetID: "notA", TargetPortID: "a"},
			{ID: "1", SourceID: "a", TargetID: "notA", TargetPortID: "b"},
			{ID: "2", SourceID: "b", TargetID: "notB", TargetPortID: "a"},
			{ID: "3", SourceID: "b", TargetID: "notB", TargetPortID: "b"},
			{ID: "4", SourceID: "notA", TargetID: "n", TargetPortID: "a"},
			{ID: "5", SourceID: "notB", TargetID: "n", TargetPortID: "b"},
			{ID: "6", SourceID: "n", TargetID: "out"},
		},
	}
	chiptest.Compare(t, defs, defs["OR"], or)
}

func TestCheck(t *testing.T) {
	c, err := chipsim.BuildNamed(chiplib.Definitions(), "XOR")
	if err != nil {
		t.Fatal(err)
	}
	chiptest.Check(t, c, func(in []bool) []bool { return []bool{in[0] != in[1]} })
}
