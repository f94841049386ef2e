/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"
)

const sampleErrMsg = "sample-error-message"

type mockProvider struct {
	storage.Provider
	storeError error
}

func (p *mockProvider) OpenStore(name string) (storage.Store, error) {
	if p.storeError != nil {
		return nil, p.storeError
	}

	return p.Provider.OpenStore(name)
}

func newRecorder(t *testing.T) *Recorder {
	t.Helper()

	recorder, err := NewRecorder(mem.NewProvider())
	require.NoError(t, err)

	return recorder
}

func Test_NewConnectionRecorder(t *testing.T) {
	t.Run("create new recorder - success", func(t *testing.T) {
		recorder, err := NewRecorder(mem.NewProvider())
		require.NoError(t, err)
		require.NotNil(t, recorder)
	})

	t.Run("create new connection recorder - store error", func(t *testing.T) {
		recorder, err := NewRecorder(&mockProvider{Provider: mem.NewProvider(), storeError: fmt.Errorf(sampleErrMsg)})
		require.Error(t, err)
		require.Contains(t, err.Error(), sampleErrMsg)
		require.Nil(t, recorder)
	})
}

func TestConnectionRecorder_SaveConnectionRecord(t *testing.T) {
	recorder := newRecorder(t)

	t.Run("save and lookup", func(t *testing.T) {
		record := &Record{
			ConnectionID: uuid.New().String(),
			State:        StateCompleted,
			MyDID:        "did:example:me",
			TheirDID:     "did:example:them",
		}

		require.NoError(t, recorder.SaveConnectionRecord(record))

		got, err := recorder.GetConnectionRecord(record.ConnectionID)
		require.NoError(t, err)
		require.Equal(t, record, got)
		require.True(t, got.Ready())

		connID, err := recorder.GetConnectionIDByDIDs(record.MyDID, record.TheirDID)
		require.NoError(t, err)
		require.Equal(t, record.ConnectionID, connID)

		require.NoError(t, recorder.SaveConnectionRecord(&Record{ConnectionID: "pending", State: "invited"}))

		records, err := recorder.QueryConnectionRecords()
		require.NoError(t, err)
		require.Len(t, records, 2)

		_, err = recorder.GetConnectionIDByDIDs("", "")
		require.ErrorIs(t, err, storage.ErrDataNotFound)
	})

	t.Run("empty connection id", func(t *testing.T) {
		require.ErrorIs(t, recorder.SaveConnectionRecord(&Record{}), errEmptyConnectionID)
	})

	t.Run("unknown connection", func(t *testing.T) {
		_, err := recorder.GetConnectionRecord("unknown")
		require.ErrorIs(t, err, ErrConnectionNotFound)
	})
}

func TestConnectionRecorder_RemoveConnection(t *testing.T) {
	recorder := newRecorder(t)

	record := &Record{ConnectionID: "c1", State: StateCompleted, MyDID: "did:a", TheirDID: "did:b"}
	require.NoError(t, recorder.SaveConnectionRecord(record))
	require.NoError(t, recorder.RemoveConnection("c1"))

	_, err := recorder.GetConnectionRecord("c1")
	require.ErrorIs(t, err, ErrConnectionNotFound)

	_, err = recorder.GetConnectionIDByDIDs("did:a", "did:b")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	require.ErrorIs(t, recorder.RemoveConnection("c1"), ErrConnectionNotFound)
}
