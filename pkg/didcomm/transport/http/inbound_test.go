/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/transport"
)

func TestInboundHandler(t *testing.T) {
	inHandler, err := NewInboundHandler(context.Background(), nil)
	require.Error(t, err)
	require.Nil(t, inHandler)

	received := make(chan *transport.Envelope, 1)

	inHandler, err = NewInboundHandler(context.Background(), func(_ context.Context, env *transport.Envelope) error {
		received <- env

		return nil
	})
	require.NoError(t, err)

	post := func(method, contentType string, body []byte) int {
		req := httptest.NewRequest(method, "/", bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)

		rr := httptest.NewRecorder()
		inHandler.ServeHTTP(rr, req)

		return rr.Code
	}

	t.Run("valid envelope", func(t *testing.T) {
		code := post(http.MethodPost, transport.MediaTypeV1PlaintextPayload,
			[]byte(`{"from":"did:example:a","to":"did:example:b","message":{"@id":"1"}}`))
		require.Equal(t, http.StatusAccepted, code)

		select {
		case env := <-received:
			require.Equal(t, "did:example:a", env.From)
			require.Equal(t, "did:example:b", env.To)
			require.JSONEq(t, `{"@id":"1"}`, string(env.Message))
		case <-time.After(time.Second):
			t.Fatal("envelope was not handled")
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		require.Equal(t, http.StatusMethodNotAllowed, post(http.MethodGet, transport.MediaTypeV1PlaintextPayload, nil))
	})

	t.Run("wrong content type", func(t *testing.T) {
		require.Equal(t, http.StatusUnsupportedMediaType, post(http.MethodPost, "text/plain", []byte("x")))
	})

	t.Run("empty payload", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, post(http.MethodPost, transport.MediaTypeV1PlaintextPayload, nil))
	})

	t.Run("invalid envelope", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest,
			post(http.MethodPost, transport.MediaTypeV1PlaintextPayload, []byte(`{"from":"a"}`)))
		require.Equal(t, http.StatusBadRequest,
			post(http.MethodPost, transport.MediaTypeV1PlaintextPayload, []byte(`not json`)))
	})
}
