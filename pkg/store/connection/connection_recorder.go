/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"
)

var errEmptyConnectionID = errors.New("connection id is empty")

// Recorder adds writes to a Lookup.
type Recorder struct {
	*Lookup
}

// NewRecorder opens the connection store of p for reading and writing.
func NewRecorder(p storage.Provider) (*Recorder, error) {
	lookup, err := NewLookup(p)
	if err != nil {
		return nil, fmt.Errorf("create connection recorder: %w", err)
	}

	return &Recorder{Lookup: lookup}, nil
}

// SaveConnectionRecord stores record. A record naming both DIDs is also indexed by the DID pair.
func (c *Recorder) SaveConnectionRecord(record *Record) error {
	if record.ConnectionID == "" {
		return errEmptyConnectionID
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode connection: %w", err)
	}

	err = c.store.Put(recordKey(record.ConnectionID), raw, storage.Tag{Name: recordTag, Value: record.ConnectionID})
	if err != nil {
		return fmt.Errorf("save connection: %w", err)
	}

	if record.MyDID == "" || record.TheirDID == "" {
		return nil
	}

	if err = c.store.Put(pairKey(record.MyDID, record.TheirDID), []byte(record.ConnectionID)); err != nil {
		return fmt.Errorf("index connection by dids: %w", err)
	}

	return nil
}

// RemoveConnection deletes a connection and its DID pair index.
func (c *Recorder) RemoveConnection(connectionID string) error {
	record, err := c.GetConnectionRecord(connectionID)
	if err != nil {
		return fmt.Errorf("remove connection: %w", err)
	}

	if record.MyDID != "" && record.TheirDID != "" {
		if err = c.store.Delete(pairKey(record.MyDID, record.TheirDID)); err != nil {
			return fmt.Errorf("remove connection dids index: %w", err)
		}
	}

	return c.store.Delete(recordKey(connectionID))
}
