/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const (
	// Namespace is the store that holds connection records.
	Namespace = "connection"

	recordTag = "conn"

	// StateCompleted marks a connection that is ready to carry protocol messages.
	StateCompleted = "completed"
)

var logger = log.New("credex/store/connection")

// ErrConnectionNotFound is returned when there is no record of a connection.
var ErrConnectionNotFound = errors.New("connection not found")

// Record describes an established connection between two agents.
type Record struct {
	ConnectionID string `json:"connectionId"`
	State        string `json:"state"`
	TheirLabel   string `json:"theirLabel,omitempty"`
	TheirDID     string `json:"theirDid"`
	MyDID        string `json:"myDid"`
}

// Ready reports whether messages may be exchanged over the connection.
func (r *Record) Ready() bool {
	return r.State == StateCompleted
}

func recordKey(connectionID string) string {
	return recordTag + "_" + connectionID
}

func pairKey(myDID, theirDID string) string {
	return "didconn_" + myDID + "_" + theirDID
}

// Lookup is the read side of the connection store.
type Lookup struct {
	store storage.Store
}

// NewLookup opens the connection store of p.
func NewLookup(p storage.Provider) (*Lookup, error) {
	store, err := p.OpenStore(Namespace)
	if err != nil {
		return nil, fmt.Errorf("open connection store: %w", err)
	}

	if err = p.SetStoreConfig(Namespace, storage.StoreConfiguration{TagNames: []string{recordTag}}); err != nil {
		return nil, fmt.Errorf("configure connection store: %w", err)
	}

	return &Lookup{store: store}, nil
}

// GetConnectionRecord returns the record of connectionID or ErrConnectionNotFound.
func (c *Lookup) GetConnectionRecord(connectionID string) (*Record, error) {
	raw, err := c.store.Get(recordKey(connectionID))
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, connectionID)
	}

	if err != nil {
		return nil, fmt.Errorf("get connection %s: %w", connectionID, err)
	}

	rec := &Record{}
	if err = json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("decode connection %s: %w", connectionID, err)
	}

	return rec, nil
}

// QueryConnectionRecords returns every stored connection.
func (c *Lookup) QueryConnectionRecords() ([]*Record, error) {
	itr, err := c.store.Query(recordTag)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}

	defer func() {
		if errClose := itr.Close(); errClose != nil {
			logger.Errorf("close connection iterator: %s", errClose)
		}
	}()

	var records []*Record

	for {
		more, err := itr.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate connections: %w", err)
		}

		if !more {
			return records, nil
		}

		raw, err := itr.Value()
		if err != nil {
			return nil, fmt.Errorf("read connection: %w", err)
		}

		rec := &Record{}
		if err = json.Unmarshal(raw, rec); err != nil {
			return nil, fmt.Errorf("decode connection: %w", err)
		}

		records = append(records, rec)
	}
}

// GetConnectionIDByDIDs returns the connection between myDID and theirDID.
func (c *Lookup) GetConnectionIDByDIDs(myDID, theirDID string) (string, error) {
	id, err := c.store.Get(pairKey(myDID, theirDID))
	if err != nil {
		return "", fmt.Errorf("connection of %s and %s: %w", myDID, theirDID, err)
	}

	return string(id), nil
}
