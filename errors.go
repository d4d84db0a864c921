// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chipsim

import (
	"strconv"
	"strings"
)

// MissingDefinitionError is returned by Build when a chip instance references
// a definition that cannot be resolved.
//
type MissingDefinitionError struct {
	Name   string // referenced definition name
	ChipID string // id of the chip instance
}

func (e *MissingDefinitionError) Error() string {
	if e.ChipID == "" {
		return "missing definition " + strconv.Quote(e.Name)
	}
	return "chip " + e.ChipID + ": missing definition " + strconv.Quote(e.Name)
}

// InvalidWireSourceError is returned by Build when the source of a wire does
// not match any port or chip instance of the enclosing definition.
//
type InvalidWireSourceError struct {
	WireID       string
	SourceID     string
	SourcePortID string
}

func (e *InvalidWireSourceError) Error() string {
	return "wire " + e.WireID + ": invalid source " + strconv.Quote(endpoint(e.SourceID, e.SourcePortID))
}

// InvalidWireTargetError is returned by Build when the target of a wire does
// not match any port or chip instance of the enclosing definition.
//
type InvalidWireTargetError struct {
	WireID       string
	TargetID     string
	TargetPortID string
}

func (e *InvalidWireTargetError) Error() string {
	return "wire " + e.WireID + ": invalid target " + strconv.Quote(endpoint(e.TargetID, e.TargetPortID))
}

// CyclicDefinitionError is returned by Build when a composite definition
// contains itself, directly or through other composites.
//
type CyclicDefinitionError struct {
	Path []string // definition names, the first and last ones are the same.
}

func (e *CyclicDefinitionError) Error() string {
	return "cyclic definition: " + strings.Join(e.Path, " -> ")
}

// MultipleDriversError is returned by Build when more than one wire drives the
// same target.
//
type MultipleDriversError struct {
	WireID string // the offending wire
	Driver string // id of the wire already driving the target
	Target string
}

func (e *MultipleDriversError) Error() string {
	return "wire " + e.WireID + ": target " + strconv.Quote(e.Target) + " already driven by wire " + e.Driver
}

// CyclicWiringError is returned by Build when wires form a feedback loop.
// Circuits are purely combinational and such loops may never settle.
//
type CyclicWiringError struct {
	Definition string // name of the definition where the loop was detected
	WireID     string // a wire on the loop
}

func (e *CyclicWiringError) Error() string {
	return e.Definition + ": feedback loop through wire " + e.WireID
}

// UnknownPortError is returned by the Circuit methods when the requested port
// id does not exist.
//
type UnknownPortError struct {
	PortID string
}

func (e *UnknownPortError) Error() string {
	return "unknown port " + strconv.Quote(e.PortID)
}
