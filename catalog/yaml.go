// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package catalog

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/db47h/chipsim"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadYAML reads definitions from a YAML stream, one definition per document.
// Wires can be given in short form (see chipsim.ParseWire).
//
func LoadYAML(r io.Reader) ([]*chipsim.Definition, error) {
	var ds []*chipsim.Definition
	dec := yaml.NewDecoder(r)
	for {
		var d chipsim.Definition
		err := dec.Decode(&d)
		if err == io.EOF {
			return ds, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "document %d", len(ds)+1)
		}
		if d.ID == "" {
			d.ID = d.Name
		}
		if err = d.Check(); err != nil {
			return nil, err
		}
		ds = append(ds, &d)
	}
}

// LoadYAMLDir loads all *.yaml and *.yml files in dir, in file name order.
//
func LoadYAMLDir(dir string) ([]*chipsim.Definition, error) {
	var names []string
	for _, pat := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, err
		}
		names = append(names, m...)
	}
	sort.Strings(names)

	var ds []*chipsim.Definition
	for _, n := range names {
		f, err := os.Open(n)
		if err != nil {
			return nil, err
		}
		fds, err := LoadYAML(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrap(err, n)
		}
		ds = append(ds, fds...)
	}
	return ds, nil
}

// WriteYAML writes definitions to w as a YAML stream.
//
func WriteYAML(w io.Writer, defs ...*chipsim.Definition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, d := range defs {
		if err := enc.Encode(d); err != nil {
			return errors.Wrap(err, d.Name)
		}
	}
	return enc.Close()
}
