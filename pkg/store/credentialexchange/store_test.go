/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credentialexchange

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
)

type failingProvider struct {
	storage.Provider
	openErr   error
	configErr error
}

func (p *failingProvider) OpenStore(name string) (storage.Store, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}

	return p.Provider.OpenStore(name)
}

func (p *failingProvider) SetStoreConfig(name string, config storage.StoreConfiguration) error {
	if p.configErr != nil {
		return p.configErr
	}

	return p.Provider.SetStoreConfig(name, config)
}

func newStore(t *testing.T, opts ...Opt) *Store {
	t.Helper()

	s, err := New(mem.NewProvider(), opts...)
	require.NoError(t, err)

	return s
}

func TestNew(t *testing.T) {
	t.Run("open store error", func(t *testing.T) {
		_, err := New(&failingProvider{Provider: mem.NewProvider(), openErr: errors.New("open")})
		require.Contains(t, err.Error(), "failed to open credential exchange store")
	})

	t.Run("store config error", func(t *testing.T) {
		_, err := New(&failingProvider{Provider: mem.NewProvider(), configErr: errors.New("config")})
		require.Contains(t, err.Error(), "failed to set credential exchange store config")
	})
}

func TestStore_SaveAndGet(t *testing.T) {
	for _, size := range []int{0, defaultCacheSize} {
		s := newStore(t, WithCacheSize(size))
		ctx := context.Background()

		rec := &Record{
			ID:                   "r1",
			ThreadID:             "t1",
			Role:                 RoleHolder,
			State:                StateProposalSent,
			ProtocolVersion:      "v2",
			CredentialAttributes: []format.Attribute{{Name: "name", Value: "Alice"}},
		}

		require.NoError(t, s.Save(ctx, rec))
		require.Equal(t, 1, rec.Version)
		require.False(t, rec.CreatedAt.IsZero())

		got, err := s.Get(ctx, "r1")
		require.NoError(t, err)
		require.Equal(t, rec.ThreadID, got.ThreadID)
		require.Equal(t, rec.CredentialAttributes, got.CredentialAttributes)

		// mutating a returned record does not leak into the store
		got.CredentialAttributes[0].Value = "Mallory"

		again, err := s.Get(ctx, "r1")
		require.NoError(t, err)
		require.Equal(t, "Alice", again.CredentialAttributes[0].Value)

		err = s.Save(ctx, &Record{ID: "r1"})
		require.ErrorIs(t, err, ErrDuplicate)

		require.EqualError(t, s.Save(ctx, &Record{}), "record id is required")

		_, err = s.Get(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)

		found, err := s.Find(ctx, "missing")
		require.NoError(t, err)
		require.Nil(t, found)
	}
}

func TestStore_GetCached(t *testing.T) {
	ctx := context.Background()
	p := mem.NewProvider()

	s, err := New(p)
	require.NoError(t, err)

	rec := &Record{
		ID:          "r1",
		ThreadID:    "t1",
		Role:        RoleHolder,
		State:       StateCredentialReceived,
		Credentials: []format.CredentialBinding{{CredentialRecordType: "jwt-vc", CredentialRecordID: "c1"}},
	}
	require.NoError(t, s.Save(ctx, rec))

	// reads below can only be served from the cache
	raw, err := p.OpenStore(StoreName)
	require.NoError(t, err)
	require.NoError(t, raw.Delete("r1"))

	first, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, rec.Credentials, first.Credentials)

	first.Credentials[0].CredentialRecordID = "changed"
	first.State = StateDone

	second, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "c1", second.Credentials[0].CredentialRecordID)
	require.Equal(t, StateCredentialReceived, second.State)

	require.NoError(t, s.Delete(ctx, "r1"))

	_, err = s.Get(ctx, "r1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Update(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := &Record{ID: "r1", ThreadID: "t1", Role: RoleIssuer, State: StateProposalReceived}
	require.NoError(t, s.Save(ctx, rec))

	first, err := s.Get(ctx, "r1")
	require.NoError(t, err)

	second, err := s.Get(ctx, "r1")
	require.NoError(t, err)

	first.State = StateOfferSent
	require.NoError(t, s.Update(ctx, first))
	require.Equal(t, 2, first.Version)

	second.State = StateDeclined
	err = s.Update(ctx, second)
	require.ErrorIs(t, err, ErrStaleRecord)
	require.Equal(t, 1, second.Version)

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, StateOfferSent, got.State)

	err = s.Update(ctx, &Record{ID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_FindByQuery(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	records := []*Record{
		{ID: "r1", ThreadID: "t1", Role: RoleHolder, ConnectionID: "c1"},
		{ID: "r2", ThreadID: "t1", Role: RoleIssuer, ConnectionID: "c2"},
		{ID: "r3", ThreadID: "t2", Role: RoleHolder, ConnectionID: "c1", Credentials: []format.CredentialBinding{
			{CredentialRecordType: "w3c", CredentialRecordID: "cred-1"},
		}},
		{ID: "r4", ThreadID: "t3", Role: RoleHolder},
	}

	for _, r := range records {
		require.NoError(t, s.Save(ctx, r))
	}

	ids := func(recs []*Record) []string {
		var out []string
		for _, r := range recs {
			out = append(out, r.ID)
		}

		return out
	}

	t.Run("all", func(t *testing.T) {
		got, err := s.FindByQuery(ctx, Query{})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"r1", "r2", "r3", "r4"}, ids(got))
	})

	t.Run("thread and role", func(t *testing.T) {
		got, err := s.FindByQuery(ctx, Query{ThreadID: "t1", Role: RoleIssuer})
		require.NoError(t, err)
		require.Equal(t, []string{"r2"}, ids(got))
	})

	t.Run("connection", func(t *testing.T) {
		got, err := s.FindByQuery(ctx, Query{ConnectionID: "c1"})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"r1", "r3"}, ids(got))
	})

	t.Run("role", func(t *testing.T) {
		got, err := s.FindByQuery(ctx, Query{Role: RoleHolder})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"r1", "r3", "r4"}, ids(got))
	})

	t.Run("credential record", func(t *testing.T) {
		got, err := s.FindSingleByQuery(ctx, Query{CredentialRecordID: "cred-1"})
		require.NoError(t, err)
		require.Equal(t, "r3", got.ID)
	})

	t.Run("single", func(t *testing.T) {
		got, err := s.FindSingleByQuery(ctx, Query{ThreadID: "t9"})
		require.NoError(t, err)
		require.Nil(t, got)

		_, err = s.FindSingleByQuery(ctx, Query{ThreadID: "t1"})
		require.Contains(t, err.Error(), "2 credential exchange records match")
	})

	t.Run("by thread", func(t *testing.T) {
		got, err := s.GetByThread(ctx, "t2", RoleHolder, "c1")
		require.NoError(t, err)
		require.Equal(t, "r3", got.ID)

		_, err = s.GetByThread(ctx, "t2", RoleHolder, "c2")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_Delete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &Record{ID: "r1", ThreadID: "t1", Role: RoleHolder}))
	require.NoError(t, s.Delete(ctx, "r1"))

	_, err := s.Get(ctx, "r1")
	require.ErrorIs(t, err, ErrNotFound)

	got, err := s.FindByQuery(ctx, Query{ThreadID: "t1"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestStore_CanceledContext(t *testing.T) {
	s := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Save(ctx, &Record{ID: "r1"}), context.Canceled)

	_, err := s.Get(ctx, "r1")
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.FindByQuery(ctx, Query{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateDone, StateDeclined, StateAbandoned} {
		require.True(t, s.Terminal(), s)
	}

	for _, s := range []State{StateProposalSent, StateOfferReceived, StateCredentialIssued} {
		require.False(t, s.Terminal(), s)
	}
}
