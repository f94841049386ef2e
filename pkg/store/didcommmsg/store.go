/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didcommmsg stores the protocol messages exchanged in a credential exchange, one per
// (exchange, message kind, role).
package didcommmsg

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const (
	// StoreName is the name of the underlying store.
	StoreName = "didcommmsg"

	tagExchangeID = "exchangeID"
	keyPattern    = "%s_%s_%s"

	defaultCacheSize = 512
)

var logger = log.New("credex/store/didcommmsg")

// Role tells whether a message was sent or received by this agent.
type Role string

const (
	// RoleSender marks messages this agent sent.
	RoleSender Role = "sender"
	// RoleReceiver marks messages this agent received.
	RoleReceiver Role = "receiver"
)

// Record is a stored protocol message.
type Record struct {
	ID         string `json:"id"`
	ExchangeID string `json:"exchangeId"`
	Kind       string `json:"kind"`
	Role       Role   `json:"role"`
	// Message holds the message bytes exactly as sent or received.
	Message   []byte    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the message log.
type Store struct {
	store storage.Store
	cache *lru.Cache[string, Record]
	mu    sync.Mutex
}

// Opt configures the store.
type Opt func(o *storeOpts)

type storeOpts struct {
	cacheSize int
}

// WithCacheSize sets the number of messages kept in memory. Zero disables caching.
func WithCacheSize(size int) Opt {
	return func(o *storeOpts) {
		o.cacheSize = size
	}
}

// New opens the message log.
func New(p storage.Provider, opts ...Opt) (*Store, error) {
	o := &storeOpts{cacheSize: defaultCacheSize}

	for _, opt := range opts {
		opt(o)
	}

	store, err := p.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open didcomm message store: %w", err)
	}

	err = p.SetStoreConfig(StoreName, storage.StoreConfiguration{TagNames: []string{tagExchangeID}})
	if err != nil {
		return nil, fmt.Errorf("failed to set didcomm message store config: %w", err)
	}

	s := &Store{store: store}

	if o.cacheSize > 0 {
		s.cache, err = lru.New[string, Record](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create didcomm message cache: %w", err)
		}
	}

	return s, nil
}

// Key returns the storage key of a message.
func Key(exchangeID, kind string, role Role) string {
	return fmt.Sprintf(keyPattern, exchangeID, kind, role)
}

// Save stores msg, replacing any message of the same exchange, kind and role. The bytes are kept as given.
func (s *Store) Save(exchangeID, kind string, role Role, msg []byte) error {
	if !json.Valid(msg) {
		return fmt.Errorf("didcomm message %s of exchange %s is not valid JSON", kind, exchangeID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(exchangeID, kind, role)
	now := time.Now().UTC()

	rec := Record{
		ID:         key,
		ExchangeID: exchangeID,
		Kind:       kind,
		Role:       role,
		Message:    append([]byte(nil), msg...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if existing, err := s.get(key); err == nil {
		rec.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, storage.ErrDataNotFound) {
		return err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal didcomm message record: %w", err)
	}

	if err = s.store.Put(key, raw, storage.Tag{Name: tagExchangeID, Value: exchangeID}); err != nil {
		return fmt.Errorf("put didcomm message %s: %w", key, err)
	}

	if s.cache != nil {
		s.cache.Add(key, rec)
	}

	return nil
}

// Get returns the message or an error wrapping storage.ErrDataNotFound.
func (s *Store) Get(exchangeID, kind string, role Role) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.get(Key(exchangeID, kind, role))
}

// Find returns the message or nil if there is none.
func (s *Store) Find(exchangeID, kind string, role Role) (*Record, error) {
	rec, err := s.Get(exchangeID, kind, role)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, nil
	}

	return rec, err
}

// DeleteByExchange removes every message of an exchange.
func (s *Store) DeleteByExchange(exchangeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter, err := s.store.Query(tagExchangeID + ":" + exchangeID)
	if err != nil {
		return fmt.Errorf("query didcomm messages of %s: %w", exchangeID, err)
	}

	defer storage.Close(iter, logger)

	var keys []string

	more, err := iter.Next()
	if err != nil {
		return fmt.Errorf("iterate didcomm messages: %w", err)
	}

	for more {
		key, e := iter.Key()
		if e != nil {
			return fmt.Errorf("failed to get key from iterator: %w", e)
		}

		keys = append(keys, key)

		more, err = iter.Next()
		if err != nil {
			return fmt.Errorf("iterate didcomm messages: %w", err)
		}
	}

	for _, key := range keys {
		if s.cache != nil {
			s.cache.Remove(key)
		}

		if err = s.store.Delete(key); err != nil {
			return fmt.Errorf("delete didcomm message %s: %w", key, err)
		}
	}

	logger.Debugf("deleted %d didcomm messages of exchange %s", len(keys), exchangeID)

	return nil
}

func (s *Store) get(key string) (*Record, error) {
	if s.cache != nil {
		if rec, ok := s.cache.Get(key); ok {
			rec.Message = append([]byte(nil), rec.Message...)

			return &rec, nil
		}
	}

	raw, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("get didcomm message %s: %w", key, err)
	}

	var rec Record

	if err = json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal didcomm message record: %w", err)
	}

	if s.cache != nil {
		s.cache.Add(key, rec)
	}

	return &rec, nil
}
