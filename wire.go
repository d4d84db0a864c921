// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chipsim

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParseWire parses a wire in short form:
//
//	source[.port] -> target[.port]
//
// For example:
//
//	ParseWire("a -> nand0.a")      // Wire{SourceID: "a", TargetID: "nand0", TargetPortID: "a"}
//	ParseWire("nand0.out -> out")  // Wire{SourceID: "nand0", SourcePortID: "out", TargetID: "out"}
//
// The wire id is the normalized form of s.
//
func ParseWire(s string) (Wire, error) {
	i := strings.Index(s, "->")
	if i < 0 {
		return Wire{}, parseError(s, len(s), "expected ->")
	}
	var (
		w   Wire
		err error
	)
	if w.SourceID, w.SourcePortID, err = parseEndpoint(s, 0, s[:i]); err != nil {
		return Wire{}, err
	}
	if w.TargetID, w.TargetPortID, err = parseEndpoint(s, i+2, s[i+2:]); err != nil {
		return Wire{}, err
	}
	w.ID = endpoint(w.SourceID, w.SourcePortID) + "->" + endpoint(w.TargetID, w.TargetPortID)
	return w, nil
}

// parseEndpoint parses "id" or "id.port". pos is the offset of e in s, for
// error reporting.
func parseEndpoint(s string, pos int, e string) (id, port string, err error) {
	lead := len(e) - len(strings.TrimLeftFunc(e, unicode.IsSpace))
	e = strings.TrimSpace(e)
	pos += lead
	if e == "" {
		return "", "", parseError(s, pos, "expected pin name")
	}
	id = e
	if i := strings.IndexRune(e, '.'); i >= 0 {
		id, port = e[:i], e[i+1:]
		if port == "" {
			return "", "", parseError(s, pos+i+1, "expected port name after '.'")
		}
	}
	if id == "" {
		return "", "", parseError(s, pos, "expected pin name")
	}
	for n, name := range []string{id, port} {
		for j, r := range name {
			if !isIdentRune(r) {
				off := pos + j
				if n == 1 {
					off += len(id) + 1
				}
				return "", "", parseError(s, off, "unexpected "+string(r))
			}
		}
	}
	return id, port, nil
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}

// UnmarshalYAML implements yaml.Unmarshaler. In addition to the mapping form,
// wires can be written in the short form accepted by ParseWire. Wires with no
// id get the same id as their short form.
//
func (w *Wire) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		pw, err := ParseWire(node.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d", node.Line)
		}
		*w = pw
		return nil
	}
	type raw Wire
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*w = Wire(r)
	if w.ID == "" {
		w.ID = endpoint(w.SourceID, w.SourcePortID) + "->" + endpoint(w.TargetID, w.TargetPortID)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Port names default to their id.
//
func (p *Port) UnmarshalYAML(node *yaml.Node) error {
	type raw Port
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	if r.Name == "" {
		r.Name = r.ID
	}
	*p = Port(r)
	return nil
}
