/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sqlite implements the storage provider interface on a single SQLite database file.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"strings"
	"sync"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var logger = log.New("credex/storage/sqlite")

const (
	blankDBPathErrMsg = "DB path for new SQLite provider can't be blank"
	driverName        = "sqlite"

	schema = `
CREATE TABLE IF NOT EXISTS entries (
	store      TEXT NOT NULL,
	item_key   TEXT NOT NULL,
	item_value BLOB,
	PRIMARY KEY (store, item_key)
);
CREATE TABLE IF NOT EXISTS tags (
	store     TEXT NOT NULL,
	item_key  TEXT NOT NULL,
	tag_name  TEXT NOT NULL,
	tag_value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tags_lookup ON tags(store, tag_name, tag_value);
CREATE INDEX IF NOT EXISTS idx_tags_key ON tags(store, item_key);
CREATE TABLE IF NOT EXISTS store_config (
	store  TEXT PRIMARY KEY,
	config TEXT NOT NULL
);`
)

// Provider represents an SQLite implementation of the storage.Provider interface.
type Provider struct {
	db     *sql.DB
	stores map[string]*store
	mu     sync.RWMutex
}

// NewProvider opens (creating when missing) the database at dbPath.
func NewProvider(dbPath string) (*Provider, error) {
	if dbPath == "" {
		return nil, errors.New(blankDBPathErrMsg)
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open connection")
	}

	// SQLite allows one writer; a single connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}

	return &Provider{db: db, stores: map[string]*store{}}, nil
}

// OpenStore opens a store with the given name and returns a handle.
// Store names are case insensitive.
func (p *Provider) OpenStore(name string) (storage.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}

	name = strings.ToLower(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.stores[name]; ok {
		return s, nil
	}

	s := &store{name: name, db: p.db, close: p.removeStore}
	p.stores[name] = s

	return s, nil
}

// SetStoreConfig persists the configuration of an opened store.
func (p *Provider) SetStoreConfig(name string, config storage.StoreConfiguration) error {
	for _, tagName := range config.TagNames {
		if strings.Contains(tagName, ":") {
			return errors.New("tag names cannot contain any ':' characters")
		}
	}

	name = strings.ToLower(name)

	p.mu.RLock()
	_, ok := p.stores[name]
	p.mu.RUnlock()

	if !ok {
		return storage.ErrStoreNotFound
	}

	raw, err := json.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal store configuration")
	}

	_, err = p.db.Exec(`INSERT INTO store_config(store, config) VALUES(?, ?)
		ON CONFLICT(store) DO UPDATE SET config = excluded.config`, name, string(raw))

	return errors.Wrapf(err, "failed to save configuration of store %s", name)
}

// GetStoreConfig returns the configuration of a store.
func (p *Provider) GetStoreConfig(name string) (storage.StoreConfiguration, error) {
	var raw string

	err := p.db.QueryRow(`SELECT config FROM store_config WHERE store = ?`, strings.ToLower(name)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.StoreConfiguration{}, storage.ErrStoreNotFound
	}

	if err != nil {
		return storage.StoreConfiguration{}, errors.Wrapf(err, "failed to get configuration of store %s", name)
	}

	var config storage.StoreConfiguration

	if err = json.Unmarshal([]byte(raw), &config); err != nil {
		return storage.StoreConfiguration{}, errors.Wrap(err, "failed to unmarshal store configuration")
	}

	return config, nil
}

// GetOpenStores returns the currently open stores.
func (p *Provider) GetOpenStores() []storage.Store {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stores := make([]storage.Store, 0, len(p.stores))
	for _, s := range p.stores {
		stores = append(stores, s)
	}

	return stores
}

// Close closes all stores and the database.
func (p *Provider) Close() error {
	p.mu.Lock()
	p.stores = map[string]*store{}
	p.mu.Unlock()

	return errors.Wrap(p.db.Close(), "failed to close database")
}

func (p *Provider) removeStore(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.stores, name)
}
