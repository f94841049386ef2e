/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPNotifier_Notify(t *testing.T) {
	t.Run("delivers topic message", func(t *testing.T) {
		received := make(chan []byte, 1)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			received <- body
		}))
		defer srv.Close()

		n := NewHTTPNotifier([]string{srv.URL})
		require.NoError(t, n.Notify("issue-credential_states", []byte(`{"stateID":"done"}`)))

		var tm topic
		require.NoError(t, json.Unmarshal(<-received, &tm))
		require.Equal(t, "issue-credential_states", tm.Topic)
		require.JSONEq(t, `{"stateID":"done"}`, string(tm.Message))
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}

			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		n := NewHTTPNotifier([]string{srv.URL}, WithWebhookRetry(3, 0))
		require.NoError(t, n.Notify("topic", []byte(`{}`)))
		require.EqualValues(t, 3, atomic.LoadInt32(&calls))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		n := NewHTTPNotifier([]string{srv.URL}, WithWebhookRetry(3, 0), WithHTTPClient(srv.Client()))
		err := n.Notify("topic", []byte(`{}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "404 Not Found")
		require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	})

	t.Run("invalid url", func(t *testing.T) {
		n := NewHTTPNotifier([]string{"%%"}, WithWebhookRetry(3, 0))
		require.Error(t, n.Notify("topic", []byte(`{}`)))
	})
}
