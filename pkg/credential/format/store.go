/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const exchangeIDTag = "exchangeID"

// CredentialStore keeps the credentials stored by a plugin.
type CredentialStore struct {
	store storage.Store
}

// OpenCredentialStore opens the credential store name from p.
func OpenCredentialStore(p storage.Provider, name string) (*CredentialStore, error) {
	store, err := p.OpenStore(name)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", name, err)
	}

	err = p.SetStoreConfig(name, storage.StoreConfiguration{TagNames: []string{exchangeIDTag}})
	if err != nil {
		return nil, fmt.Errorf("set store config %s: %w", name, err)
	}

	return &CredentialStore{store: store}, nil
}

// Save stores raw under id.
func (s *CredentialStore) Save(id, exchangeID string, raw []byte) error {
	return s.store.Put(id, raw, storage.Tag{Name: exchangeIDTag, Value: exchangeID})
}

// Get returns the credential stored under id.
func (s *CredentialStore) Get(id string) ([]byte, error) {
	raw, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	return raw, nil
}

// Delete removes the credential stored under id. Deleting a missing credential is not an error.
func (s *CredentialStore) Delete(id string) error {
	if _, err := s.store.Get(id); errors.Is(err, storage.ErrDataNotFound) {
		return nil
	}

	return s.store.Delete(id)
}
