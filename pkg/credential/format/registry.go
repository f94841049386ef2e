/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownKey is returned for keys that name no supported or registered plugin.
	ErrUnknownKey = errors.New("unknown format key")
	// ErrDuplicateKey is returned when a key is registered twice.
	ErrDuplicateKey = errors.New("format key already registered")
)

// Registry maps format keys to plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[Key]Plugin
	order   []Key
}

// NewRegistry returns a registry holding plugins.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{plugins: map[Key]Plugin{}}

	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds p to the registry.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return errors.New("nil format plugin")
	}

	k := p.Key()
	if !k.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKey, k)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[k]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, k)
	}

	r.plugins[k] = p
	r.order = append(r.order, k)

	return nil
}

// Get returns the plugin registered under k.
func (r *Registry) Get(k Key) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, k)
	}

	return p, nil
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Key(nil), r.order...)
}

// Select returns the plugins for keys in registration order, each at most once.
func (r *Registry) Select(keys []Key) ([]Plugin, error) {
	wanted := make(map[Key]struct{}, len(keys))

	for _, k := range keys {
		if _, err := r.Get(k); err != nil {
			return nil, err
		}

		wanted[k] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var plugins []Plugin

	for _, k := range r.order {
		if _, ok := wanted[k]; ok {
			plugins = append(plugins, r.plugins[k])
		}
	}

	return plugins, nil
}

// ForFormats returns the plugins supporting at least one of formatIDs, in registration order.
func (r *Registry) ForFormats(formatIDs []string) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var plugins []Plugin

	for _, k := range r.order {
		p := r.plugins[k]

		for _, id := range formatIDs {
			if p.SupportsFormat(id) {
				plugins = append(plugins, p)

				break
			}
		}
	}

	return plugins
}

// ByRecordType returns the plugin storing credentials of recordType.
func (r *Registry) ByRecordType(recordType string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, k := range r.order {
		if r.plugins[k].CredentialRecordType() == recordType {
			return r.plugins[k], nil
		}
	}

	return nil, fmt.Errorf("%w: no plugin for credential record type %q", ErrUnknownKey, recordType)
}
