// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package catalog

import (
	"context"
	"sync"

	"github.com/db47h/chipsim"
)

// MemPersister is an in-memory Persister, for tests and ephemeral catalogs.
//
type MemPersister struct {
	mu   sync.Mutex
	ids  []string
	defs map[string]*chipsim.Definition
}

var _ Persister = (*MemPersister)(nil)

// NewMemPersister returns a new MemPersister holding copies of defs.
//
func NewMemPersister(defs ...*chipsim.Definition) *MemPersister {
	p := &MemPersister{defs: make(map[string]*chipsim.Definition)}
	for _, d := range defs {
		p.Save(context.Background(), d)
	}
	return p
}

// Load implements Persister. Definitions are returned in creation order.
//
func (p *MemPersister) Load(ctx context.Context) ([]*chipsim.Definition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ds := make([]*chipsim.Definition, 0, len(p.ids))
	for _, id := range p.ids {
		ds = append(ds, p.defs[id].Clone())
	}
	return ds, nil
}

// Save implements Persister.
//
func (p *MemPersister) Save(ctx context.Context, d *chipsim.Definition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.defs[d.ID]; !ok {
		p.ids = append(p.ids, d.ID)
	}
	p.defs[d.ID] = d.Clone()
	return nil
}

// Delete implements Persister.
//
func (p *MemPersister) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.defs[id]; !ok {
		return nil
	}
	delete(p.defs, id)
	for i, v := range p.ids {
		if v == id {
			p.ids = append(p.ids[:i], p.ids[i+1:]...)
			break
		}
	}
	return nil
}
