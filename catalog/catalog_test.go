package catalog_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/db47h/chipsim"
	"github.com/db47h/chipsim/catalog"
	"github.com/db47h/chipsim/chiplib"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// def returns a definition with one input "in" and one output "out".
func def(t *testing.T, name string, chips map[string]string, wires ...string) *chipsim.Definition {
	t.Helper()
	d := &chipsim.Definition{
		Name: name,
		Ports: []chipsim.Port{
			{ID: "in", Name: "in", Direction: chipsim.In},
			{ID: "out", Name: "out", Direction: chipsim.Out},
		},
	}
	for id, n := range chips {
		d.Chips = append(d.Chips, chipsim.Chip{ID: id, Name: n})
	}
	for _, s := range wires {
		w, err := chipsim.ParseWire(s)
		require.NoError(t, err)
		d.Wires = append(d.Wires, w)
	}
	return d
}

func newCatalog(t *testing.T, saved ...*chipsim.Definition) *catalog.Catalog {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	c := catalog.New(chiplib.Builtins(),
		catalog.WithPersister(catalog.NewMemPersister(saved...)),
		catalog.WithLogger(log))
	require.NoError(t, c.Open(context.Background()))
	return c
}

func TestCatalog_shadowing(t *testing.T) {
	// a NOT that does not invert
	buf := def(t, "NOT", map[string]string{"n0": "NAND", "n1": "NAND"},
		"in -> n0.a", "in -> n0.b", "n0.out -> n1.a", "n0.out -> n1.b", "n1.out -> out")
	buf.ID = "buf"
	c := newCatalog(t, buf)

	d, ok := c.Lookup("NOT")
	require.True(t, ok)
	assert.Equal(t, "buf", d.ID)

	// AND now uses the saved NOT and behaves like NAND
	and, err := chipsim.BuildNamed(c, "AND")
	require.NoError(t, err)
	out, err := and.Eval(map[string]bool{"a": true, "b": true})
	require.NoError(t, err)
	assert.False(t, out["out"])

	// built-in NOT is still reachable by id
	d, err = c.GetByID("not")
	require.NoError(t, err)
	assert.Equal(t, "NOT", d.Name)

	var names []string
	for _, d := range c.List() {
		if d.Name == "NOT" {
			names = append(names, d.ID)
		}
	}
	assert.Equal(t, []string{"buf"}, names)
}

func TestCatalog_Add(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	d, err := c.Add(ctx, def(t, "BUF", map[string]string{"not0": "NOT", "not1": "NOT"},
		"in -> not0", "not0 -> not1", "not1 -> out"))
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, 1, d.Version)
	assert.False(t, d.CreatedAt.IsZero())

	got, err := c.GetByName("BUF")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	var dup *catalog.DuplicateNameError
	_, err = c.Add(ctx, def(t, "BUF", nil, "in -> out"))
	require.True(t, errors.As(err, &dup), "%v", err)
	assert.Equal(t, "BUF", dup.Name)

	_, err = c.Add(ctx, def(t, "AND", nil, "in -> out"))
	require.True(t, errors.As(err, &dup), "%v", err)

	other := def(t, "OTHER", nil, "in -> out")
	other.ID = d.ID
	_, err = c.Add(ctx, other)
	require.True(t, errors.As(err, &dup), "%v", err)
	assert.Equal(t, d.ID, dup.ID)

	_, err = c.Add(ctx, def(t, "", nil))
	assert.Error(t, err)

	_, err = c.GetByName("nope")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestCatalog_Update(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	d, err := c.Add(ctx, def(t, "BUF", nil, "in -> out"))
	require.NoError(t, err)

	nd := def(t, "INV", map[string]string{"not0": "NOT"}, "in -> not0", "not0 -> out")
	u, err := c.Update(ctx, d.ID, nd)
	require.NoError(t, err)
	assert.Equal(t, d.ID, u.ID)
	assert.Equal(t, 2, u.Version)
	assert.Equal(t, d.CreatedAt, u.CreatedAt)

	_, err = c.GetByName("BUF")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
	inv, err := chipsim.BuildNamed(c, "INV")
	require.NoError(t, err)
	v, err := inv.Output("out")
	require.NoError(t, err)
	assert.True(t, v)

	_, err = c.Update(ctx, "not", nd)
	assert.True(t, errors.Is(err, catalog.ErrReadOnly))
	_, err = c.Update(ctx, "nope", nd)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	var dup *catalog.DuplicateNameError
	_, err = c.Update(ctx, d.ID, def(t, "XOR", nil, "in -> out"))
	assert.True(t, errors.As(err, &dup))
}

func TestCatalog_Remove(t *testing.T) {
	ctx := context.Background()
	p := catalog.NewMemPersister()
	c := catalog.New(chiplib.Builtins(), catalog.WithPersister(p))
	require.NoError(t, c.Open(ctx))

	inv, err := c.Add(ctx, def(t, "INV", map[string]string{"not0": "NOT"}, "in -> not0", "not0 -> out"))
	require.NoError(t, err)
	user, err := c.Add(ctx, def(t, "USER", map[string]string{"i0": "INV", "i1": "INV", "n": "NOT"},
		"in -> i0", "i0 -> n", "n -> i1", "i1 -> out"))
	require.NoError(t, err)

	require.NoError(t, c.Remove(ctx, inv.ID))
	_, err = c.GetByID(inv.ID)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	u, err := c.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, []chipsim.Chip{{ID: "n", Name: "NOT"}}, u.Chips)
	require.Len(t, u.Wires, 0)
	assert.Equal(t, 2, u.Version)

	// changes are persisted
	ds, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, u, ds[0])

	assert.True(t, errors.Is(c.Remove(ctx, "nand"), catalog.ErrReadOnly))
	assert.True(t, errors.Is(c.Remove(ctx, inv.ID), catalog.ErrNotFound))
}

func TestCatalog_Snapshot(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	d, err := c.Add(ctx, def(t, "BUF", nil, "in -> out"))
	require.NoError(t, err)

	snap := c.Snapshot()
	_, err = c.Update(ctx, d.ID, def(t, "BUF", map[string]string{"not0": "NOT"}, "in -> not0", "not0 -> out"))
	require.NoError(t, err)

	old, ok := snap.Lookup("BUF")
	require.True(t, ok)
	assert.Equal(t, 1, old.Version)
	assert.Len(t, old.Chips, 0)
	cur, _ := c.Lookup("BUF")
	assert.Equal(t, 2, cur.Version)

	// returned copies do not alias the catalog
	g, err := c.GetByName("BUF")
	require.NoError(t, err)
	g.Chips[0].Name = "AND"
	cur, _ = c.Lookup("BUF")
	assert.Equal(t, "NOT", cur.Chips[0].Name)
}

const yamlDefs = `
name: BUF
ports:
  - {id: in, direction: IN}
  - {id: out, direction: OUTPUT, value: true}
chips:
  - {id: not0, name: NOT}
  - {id: not1, name: NOT}
wires:
  - in -> not0.in
  - not0 -> not1
  - {sourceId: not1, targetId: out}
---
name: PASS
id: pass
ports:
  - {id: in, direction: IN}
  - {id: out, direction: OUT}
wires:
  - in -> out
`

func TestLoadYAML(t *testing.T) {
	ds, err := catalog.LoadYAML(strings.NewReader(yamlDefs))
	require.NoError(t, err)
	require.Len(t, ds, 2)

	buf := ds[0]
	assert.Equal(t, "BUF", buf.ID)
	assert.Equal(t, "out", buf.Ports[1].Name)
	assert.Equal(t, chipsim.Out, buf.Ports[1].Direction)
	require.NotNil(t, buf.Ports[1].Value)
	assert.Equal(t, []string{"in->not0.in", "not0->not1", "not1->out"},
		[]string{buf.Wires[0].ID, buf.Wires[1].ID, buf.Wires[2].ID})

	c, err := chipsim.Build(buf, chiplib.Definitions())
	require.NoError(t, err)
	for _, v := range []bool{true, false} {
		out, err := c.Eval(map[string]bool{"in": v})
		require.NoError(t, err)
		assert.Equal(t, v, out["out"])
	}

	var b bytes.Buffer
	require.NoError(t, catalog.WriteYAML(&b, ds...))
	back, err := catalog.LoadYAML(&b)
	require.NoError(t, err)
	assert.Equal(t, ds, back)

	_, err = catalog.LoadYAML(strings.NewReader("name: X\nwires:\n  - a -> \n"))
	assert.Error(t, err)
	_, err = catalog.LoadYAML(strings.NewReader("name: X\nports:\n  - {id: a, direction: SIDEWAYS}\n"))
	assert.Error(t, err)
}
