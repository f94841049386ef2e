/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcommmsg

import (
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	for _, size := range []int{0, 4} {
		s, err := New(mem.NewProvider(), WithCacheSize(size))
		require.NoError(t, err)

		t.Run("save keeps bytes verbatim", func(t *testing.T) {
			msg := []byte(`{"@id":"m1",  "comment":"spaced"}`)
			require.NoError(t, s.Save("ex1", "offer", RoleReceiver, msg))

			rec, err := s.Get("ex1", "offer", RoleReceiver)
			require.NoError(t, err)
			require.Equal(t, string(msg), string(rec.Message))
			require.Equal(t, "ex1_offer_receiver", rec.ID)
		})

		t.Run("upsert", func(t *testing.T) {
			require.NoError(t, s.Save("ex1", "proposal", RoleSender, []byte(`{"@id":"p1"}`)))

			first, err := s.Get("ex1", "proposal", RoleSender)
			require.NoError(t, err)

			require.NoError(t, s.Save("ex1", "proposal", RoleSender, []byte(`{"@id":"p2"}`)))

			second, err := s.Get("ex1", "proposal", RoleSender)
			require.NoError(t, err)
			require.JSONEq(t, `{"@id":"p2"}`, string(second.Message))
			require.Equal(t, first.CreatedAt, second.CreatedAt)
		})

		t.Run("roles are separate", func(t *testing.T) {
			rec, err := s.Find("ex1", "offer", RoleSender)
			require.NoError(t, err)
			require.Nil(t, rec)

			_, err = s.Get("ex1", "offer", RoleSender)
			require.ErrorIs(t, err, storage.ErrDataNotFound)
		})

		t.Run("invalid json", func(t *testing.T) {
			require.Contains(t, s.Save("ex1", "offer", RoleSender, []byte("{")).Error(), "not valid JSON")
		})

		t.Run("delete by exchange", func(t *testing.T) {
			require.NoError(t, s.Save("ex2", "offer", RoleSender, []byte(`{}`)))
			require.NoError(t, s.DeleteByExchange("ex1"))

			rec, err := s.Find("ex1", "offer", RoleReceiver)
			require.NoError(t, err)
			require.Nil(t, rec)

			rec, err = s.Find("ex2", "offer", RoleSender)
			require.NoError(t, err)
			require.NotNil(t, rec)

			require.NoError(t, s.DeleteByExchange("unknown"))
		})
	}
}
