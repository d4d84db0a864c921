// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package catalog provides the store of chip definitions: built-in
// definitions plus user-saved ones kept by a Persister.
//
// Saved definitions shadow built-in definitions of the same name. Definitions
// in the catalog are never modified in place: updates replace them, so that
// the values returned by Lookup and Snapshot can be used by chipsim.Build
// while the catalog changes.
//
package catalog

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/db47h/chipsim"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Errors returned by the catalog.
//
var (
	ErrNotFound = errors.New("definition not found")
	ErrReadOnly = errors.New("built-in definitions are read-only")
)

// DuplicateNameError is returned by Add and Update when a definition name or id
// is already used.
//
type DuplicateNameError struct {
	Name string
	ID   string
}

func (e *DuplicateNameError) Error() string {
	if e.ID != "" {
		return "duplicate definition id " + strconv.Quote(e.ID)
	}
	return "duplicate definition name " + strconv.Quote(e.Name)
}

// A Persister stores saved definitions.
//
type Persister interface {
	// Load returns all stored definitions.
	Load(ctx context.Context) ([]*chipsim.Definition, error)
	// Save creates or replaces the definition with the same id.
	Save(ctx context.Context, d *chipsim.Definition) error
	// Delete removes the definition with the given id.
	Delete(ctx context.Context, id string) error
}

// Catalog is the store of chip definitions. It implements chipsim.Resolver
// and is safe for concurrent use.
//
type Catalog struct {
	mu       sync.RWMutex
	builtins []*chipsim.Definition
	saved    []*chipsim.Definition
	p        Persister
	log      logrus.FieldLogger
}

var _ chipsim.Resolver = (*Catalog)(nil)

// An Option configures a Catalog.
//
type Option func(*Catalog)

// WithPersister sets the persister for saved definitions. The default is an
// in-memory persister.
//
func WithPersister(p Persister) Option {
	return func(c *Catalog) { c.p = p }
}

// WithLogger sets the logger. The default is logrus.StandardLogger().
//
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Catalog) { c.log = l }
}

// New returns a new catalog with the given built-in definitions.
//
func New(builtins []*chipsim.Definition, opts ...Option) *Catalog {
	c := &Catalog{
		log: logrus.StandardLogger(),
	}
	for _, d := range builtins {
		c.builtins = append(c.builtins, d.Clone())
	}
	for _, o := range opts {
		o(c)
	}
	if c.p == nil {
		c.p = NewMemPersister()
	}
	return c
}

// Open loads saved definitions from the persister, replacing any saved
// definitions already in c.
//
func (c *Catalog) Open(ctx context.Context) error {
	ds, err := c.p.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load definitions")
	}
	c.mu.Lock()
	c.saved = ds
	c.mu.Unlock()
	c.log.WithField("count", len(ds)).Debug("catalog: saved definitions loaded")
	return nil
}

func (c *Catalog) find(match func(d *chipsim.Definition) bool) *chipsim.Definition {
	for _, d := range c.saved {
		if match(d) {
			return d
		}
	}
	for _, d := range c.builtins {
		if match(d) {
			return d
		}
	}
	return nil
}

func (c *Catalog) savedIndex(id string) int {
	for i, d := range c.saved {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Lookup implements chipsim.Resolver. The returned definition must not be
// modified.
//
func (c *Catalog) Lookup(name string) (*chipsim.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := c.find(func(d *chipsim.Definition) bool { return d.Name == name })
	return d, d != nil
}

// GetByName returns a copy of the definition with the given name.
//
func (c *Catalog) GetByName(name string) (*chipsim.Definition, error) {
	if d, ok := c.Lookup(name); ok {
		return d.Clone(), nil
	}
	return nil, errors.Wrap(ErrNotFound, strconv.Quote(name))
}

// GetByID returns a copy of the definition with the given id.
//
func (c *Catalog) GetByID(id string) (*chipsim.Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if d := c.find(func(d *chipsim.Definition) bool { return d.ID == id }); d != nil {
		return d.Clone(), nil
	}
	return nil, errors.Wrap(ErrNotFound, "id "+strconv.Quote(id))
}

// List returns copies of all visible definitions: saved ones first, then the
// built-in ones that are not shadowed by a saved definition.
//
func (c *Catalog) List() []*chipsim.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ds []*chipsim.Definition
	for _, d := range c.visible() {
		ds = append(ds, d.Clone())
	}
	return ds
}

func (c *Catalog) visible() []*chipsim.Definition {
	ds := make([]*chipsim.Definition, 0, len(c.saved)+len(c.builtins))
	names := make(map[string]struct{}, len(c.saved))
	for _, d := range c.saved {
		ds = append(ds, d)
		names[d.Name] = struct{}{}
	}
	for _, d := range c.builtins {
		if _, ok := names[d.Name]; !ok {
			ds = append(ds, d)
		}
	}
	return ds
}

// Snapshot returns a frozen view of the catalog, suitable for building
// circuits while the catalog is being updated.
//
func (c *Catalog) Snapshot() chipsim.Definitions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return chipsim.NewDefinitions(c.visible()...)
}

// Builtin returns true if id is the id of a built-in definition.
//
func (c *Catalog) Builtin(id string) bool {
	for _, d := range c.builtins {
		if d.ID == id {
			return true
		}
	}
	return false
}

// collision checks d against all definitions except the saved one with id
// skip.
func (c *Catalog) collision(d *chipsim.Definition, skip string) error {
	for _, ds := range [][]*chipsim.Definition{c.saved, c.builtins} {
		for _, o := range ds {
			if o.ID == skip {
				continue
			}
			if o.Name == d.Name {
				return errors.WithStack(&DuplicateNameError{Name: d.Name})
			}
			if o.ID == d.ID {
				return errors.WithStack(&DuplicateNameError{Name: d.Name, ID: d.ID})
			}
		}
	}
	return nil
}

// Add adds a new definition to the catalog and persists it. A new id is
// assigned if d.ID is empty. It returns the stored definition.
//
func (c *Catalog) Add(ctx context.Context, d *chipsim.Definition) (*chipsim.Definition, error) {
	d = d.Clone()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	if err := d.Check(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.collision(d, ""); err != nil {
		return nil, err
	}
	if err := c.p.Save(ctx, d); err != nil {
		return nil, errors.Wrapf(err, "save %s", d.Name)
	}
	c.saved = append(c.saved, d)
	c.log.WithFields(logrus.Fields{"id": d.ID, "name": d.Name}).Debug("catalog: definition added")
	return d.Clone(), nil
}

// Update replaces the body of the saved definition with the given id. The id,
// creation time and author are kept and the version is incremented. Chips
// using the definition reference it by name and pick up the change on their
// next build.
//
func (c *Catalog) Update(ctx context.Context, id string, d *chipsim.Definition) (*chipsim.Definition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.savedIndex(id)
	if i < 0 {
		if c.Builtin(id) {
			return nil, errors.Wrap(ErrReadOnly, "id "+strconv.Quote(id))
		}
		return nil, errors.Wrap(ErrNotFound, "id "+strconv.Quote(id))
	}
	old := c.saved[i]
	d = d.Clone()
	d.ID = old.ID
	d.CreatedAt = old.CreatedAt
	d.CreatedBy = old.CreatedBy
	d.Version = old.Version + 1
	if err := d.Check(); err != nil {
		return nil, err
	}
	if err := c.collision(d, id); err != nil {
		return nil, err
	}
	if err := c.p.Save(ctx, d); err != nil {
		return nil, errors.Wrapf(err, "save %s", d.Name)
	}
	c.saved[i] = d
	c.log.WithFields(logrus.Fields{"id": d.ID, "name": d.Name, "version": d.Version}).Debug("catalog: definition updated")
	return d.Clone(), nil
}

// Remove deletes the saved definition with the given id. Chip instances of
// that definition are removed from all other saved definitions, together with
// the wires connected to them.
//
func (c *Catalog) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.savedIndex(id)
	if i < 0 {
		if c.Builtin(id) {
			return errors.Wrap(ErrReadOnly, "id "+strconv.Quote(id))
		}
		return errors.Wrap(ErrNotFound, "id "+strconv.Quote(id))
	}
	removed := c.saved[i]
	if err := c.p.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete %s", removed.Name)
	}
	c.saved = append(c.saved[:i:i], c.saved[i+1:]...)
	c.log.WithFields(logrus.Fields{"id": id, "name": removed.Name}).Debug("catalog: definition removed")

	for j, d := range c.saved {
		nd := strip(d, removed.Name)
		if nd == nil {
			continue
		}
		if err := c.p.Save(ctx, nd); err != nil {
			return errors.Wrapf(err, "save %s", nd.Name)
		}
		c.saved[j] = nd
		c.log.WithFields(logrus.Fields{"id": nd.ID, "name": nd.Name, "removed": removed.Name}).
			Info("catalog: stripped chips of removed definition")
	}
	return nil
}

// strip returns a copy of d without the instances of chip name and the wires
// connected to them, or nil if d has no such chip.
func strip(d *chipsim.Definition, name string) *chipsim.Definition {
	gone := make(map[string]struct{})
	for _, ch := range d.Chips {
		if ch.Name == name {
			gone[ch.ID] = struct{}{}
		}
	}
	if len(gone) == 0 {
		return nil
	}
	nd := d.Clone()
	nd.Chips = nd.Chips[:0]
	for _, ch := range d.Chips {
		if _, ok := gone[ch.ID]; !ok {
			nd.Chips = append(nd.Chips, ch)
		}
	}
	nd.Wires = nd.Wires[:0]
	for _, w := range d.Wires {
		_, src := gone[w.SourceID]
		_, dst := gone[w.TargetID]
		if !src && !dst {
			nd.Wires = append(nd.Wires, w)
		}
	}
	nd.Version++
	return nd
}
