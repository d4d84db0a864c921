// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bolt implements a catalog.Persister on top of a bbolt database.
//
// Definitions are stored as JSON in a single bucket, keyed by id.
//
package bolt

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/db47h/chipsim"
	"github.com/db47h/chipsim/catalog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var bucket = []byte("definitions")

// Storage is a bbolt backed catalog.Persister.
//
type Storage struct {
	Log      logrus.FieldLogger
	filename string
	db       *bolt.DB
}

var _ catalog.Persister = (*Storage)(nil)

// NewStorage returns a new Storage for the given database file. Call Open
// before use.
//
func NewStorage(filename string) *Storage {
	return &Storage{
		Log:      logrus.StandardLogger(),
		filename: filename,
	}
}

// Open opens the database, creating it if needed.
//
func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return errors.Wrap(err, s.filename)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return errors.Wrap(err, s.filename)
	}
	s.db = db
	s.Log.WithField("file", s.filename).Debug("bolt: database open")
	return nil
}

// Close closes the database.
//
func (s *Storage) Close() error {
	return s.db.Close()
}

// Load implements catalog.Persister. Definitions are returned in creation
// order.
//
func (s *Storage) Load(ctx context.Context) ([]*chipsim.Definition, error) {
	var ds []*chipsim.Definition
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for id, js := c.First(); id != nil; id, js = c.Next() {
			var d chipsim.Definition
			if err := json.Unmarshal(js, &d); err != nil {
				return errors.Wrapf(err, "definition %s", id)
			}
			d.ID = string(id)
			ds = append(ds, &d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByCreation(ds)
	s.Log.WithField("count", len(ds)).Debug("bolt: definitions loaded")
	return ds, nil
}

// Save implements catalog.Persister.
//
func (s *Storage) Save(ctx context.Context, d *chipsim.Definition) error {
	js, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, d.Name)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(d.ID), js)
	})
}

// Delete implements catalog.Persister.
//
func (s *Storage) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(id))
	})
}

// sortByCreation orders ds by creation time. bbolt returns keys in byte
// order, which for uuids is random.
func sortByCreation(ds []*chipsim.Definition) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].CreatedAt.Before(ds[j].CreatedAt) })
}
