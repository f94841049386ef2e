/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credentialexchange persists credential exchange records.
package credentialexchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const (
	// StoreName is the name of the underlying store.
	StoreName = "credentialexchange"

	tagAll          = "credentialExchange"
	tagThreadID     = "threadID"
	tagRole         = "role"
	tagConnectionID = "connectionID"
	// credential bindings are tagged by name so that membership can be queried with a single tag.
	tagCredentialPrefix = "credential_"

	defaultCacheSize = 256
)

var logger = log.New("credex/store/credentialexchange")

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("credential exchange record not found")
	// ErrDuplicate is returned when saving a record whose id is taken.
	ErrDuplicate = errors.New("credential exchange record already exists")
	// ErrStaleRecord is returned when updating a record that was modified since it was read.
	ErrStaleRecord = errors.New("credential exchange record was modified concurrently")
)

// Query filters records. Empty fields match everything.
type Query struct {
	ThreadID           string
	Role               Role
	ConnectionID       string
	CredentialRecordID string
}

// Store is the exchange record store.
// Updates are compare-and-swap on Record.Version within one Store instance.
type Store struct {
	store storage.Store
	cache gcache.Cache
	mu    sync.Mutex
}

// Opt configures the store.
type Opt func(s *storeOpts)

type storeOpts struct {
	cacheSize int
}

// WithCacheSize sets the size of the record read cache. Zero disables caching.
func WithCacheSize(size int) Opt {
	return func(o *storeOpts) {
		o.cacheSize = size
	}
}

// New opens the exchange record store.
func New(p storage.Provider, opts ...Opt) (*Store, error) {
	o := &storeOpts{cacheSize: defaultCacheSize}

	for _, opt := range opts {
		opt(o)
	}

	store, err := p.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential exchange store: %w", err)
	}

	err = p.SetStoreConfig(StoreName, storage.StoreConfiguration{
		TagNames: []string{tagAll, tagThreadID, tagRole, tagConnectionID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set credential exchange store config: %w", err)
	}

	s := &Store{store: store}

	if o.cacheSize > 0 {
		s.cache = gcache.New(o.cacheSize).LRU().Build()
	}

	return s, nil
}

// Save stores a new record and sets its Version to 1.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if rec.ID == "" {
		return errors.New("record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(rec.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.ID)
	} else if !errors.Is(err, storage.ErrDataNotFound) {
		return fmt.Errorf("get record %s: %w", rec.ID, err)
	}

	now := time.Now().UTC()
	rec.Version = 1
	rec.CreatedAt = now
	rec.UpdatedAt = now

	return s.put(rec)
}

// Update replaces a stored record. It fails with ErrStaleRecord if the stored version differs from rec.Version.
// On success rec.Version is incremented.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(rec.ID)
	if err != nil {
		return err
	}

	if current.Version != rec.Version {
		return fmt.Errorf("%w: %s has version %d, update is based on %d",
			ErrStaleRecord, rec.ID, current.Version, rec.Version)
	}

	rec.Version++
	rec.UpdatedAt = time.Now().UTC()

	if err = s.put(rec); err != nil {
		rec.Version--

		return err
	}

	return nil
}

// Get returns the record with id or an error wrapping ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.get(id)
}

// Find returns the record with id or nil if there is none.
func (s *Store) Find(ctx context.Context, id string) (*Record, error) {
	rec, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	return rec, err
}

// FindByQuery returns the records matching q.
func (s *Store) FindByQuery(ctx context.Context, q Query) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iter, err := s.store.Query(q.expression())
	if err != nil {
		return nil, fmt.Errorf("query credential exchange records: %w", err)
	}

	defer storage.Close(iter, logger)

	var records []*Record

	more, err := iter.Next()
	if err != nil {
		return nil, fmt.Errorf("iterate credential exchange records: %w", err)
	}

	for more {
		value, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to get value from iterator: %w", err)
		}

		var rec Record

		if err = json.Unmarshal(value, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credential exchange record: %w", err)
		}

		if q.matches(&rec) {
			records = append(records, &rec)
		}

		more, err = iter.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate credential exchange records: %w", err)
		}
	}

	return records, nil
}

// FindSingleByQuery returns the only record matching q, nil if there is none.
func (s *Store) FindSingleByQuery(ctx context.Context, q Query) (*Record, error) {
	records, err := s.FindByQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		return records[0], nil
	default:
		return nil, fmt.Errorf("%d credential exchange records match thread %q role %q connection %q",
			len(records), q.ThreadID, q.Role, q.ConnectionID)
	}
}

// GetByThread returns the record of threadID and role, optionally bound to connectionID.
func (s *Store) GetByThread(ctx context.Context, threadID string, role Role, connectionID string) (*Record, error) {
	rec, err := s.FindSingleByQuery(ctx, Query{ThreadID: threadID, Role: role, ConnectionID: connectionID})
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}

	return rec, nil
}

// Delete removes the record with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		s.cache.Remove(id)
	}

	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("delete credential exchange record %s: %w", id, err)
	}

	return nil
}

func (s *Store) get(id string) (*Record, error) {
	if s.cache != nil {
		if v, err := s.cache.Get(id); err == nil {
			cached := v.(Record) //nolint:forcetypeassert
			rec := cached.Clone()

			return &rec, nil
		}
	}

	raw, err := s.store.Get(id)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("get credential exchange record %s: %w", id, err)
	}

	var rec Record

	if err = json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential exchange record: %w", err)
	}

	s.remember(&rec)

	return &rec, nil
}

func (s *Store) put(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal credential exchange record: %w", err)
	}

	if err = s.store.Put(rec.ID, raw, tags(rec)...); err != nil {
		return fmt.Errorf("put credential exchange record %s: %w", rec.ID, err)
	}

	s.remember(rec)

	return nil
}

func (s *Store) remember(rec *Record) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Set(rec.ID, rec.Clone()); err != nil {
		logger.Warnf("failed to cache credential exchange record %s: %v", rec.ID, err)
	}
}

func tags(rec *Record) []storage.Tag {
	t := []storage.Tag{
		{Name: tagAll},
		{Name: tagThreadID, Value: rec.ThreadID},
		{Name: tagRole, Value: string(rec.Role)},
	}

	if rec.ConnectionID != "" {
		t = append(t, storage.Tag{Name: tagConnectionID, Value: rec.ConnectionID})
	}

	for _, c := range rec.Credentials {
		t = append(t, storage.Tag{Name: tagCredentialPrefix + c.CredentialRecordID})
	}

	return t
}

// expression picks the most selective single tag; the remaining fields are filtered by matches.
func (q Query) expression() string {
	switch {
	case q.ThreadID != "":
		return tagThreadID + ":" + q.ThreadID
	case q.CredentialRecordID != "":
		return tagCredentialPrefix + q.CredentialRecordID
	case q.ConnectionID != "":
		return tagConnectionID + ":" + q.ConnectionID
	case q.Role != "":
		return tagRole + ":" + string(q.Role)
	default:
		return tagAll
	}
}

func (q Query) matches(rec *Record) bool {
	if q.ThreadID != "" && rec.ThreadID != q.ThreadID {
		return false
	}

	if q.Role != "" && rec.Role != q.Role {
		return false
	}

	if q.ConnectionID != "" && rec.ConnectionID != q.ConnectionID {
		return false
	}

	if q.CredentialRecordID == "" {
		return true
	}

	for _, c := range rec.Credentials {
		if c.CredentialRecordID == q.CredentialRecordID {
			return true
		}
	}

	return false
}
