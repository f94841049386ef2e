/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmdutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/controller/command"
)

func TestHTTPHandler(t *testing.T) {
	h := NewHTTPHandler("/issuecredential/{piid}/accept-offer", http.MethodPost,
		func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusAccepted)
		})

	require.Equal(t, "/issuecredential/{piid}/accept-offer", h.Path())
	require.Equal(t, http.MethodPost, h.Method())

	rw := httptest.NewRecorder()
	h.Handle()(rw, httptest.NewRequest(http.MethodPost, "/issuecredential/p1/accept-offer", nil))
	require.Equal(t, http.StatusAccepted, rw.Code)
}

func TestCommandHandler(t *testing.T) {
	h := NewCommandHandler("issuecredential", "AcceptOffer", func(rw io.Writer, req io.Reader) command.Error {
		_, err := io.Copy(rw, req)
		require.NoError(t, err)

		return nil
	})

	require.Equal(t, "issuecredential", h.Name())
	require.Equal(t, "AcceptOffer", h.Method())

	var out strings.Builder
	require.Nil(t, h.Handle()(&out, strings.NewReader(`{"piid":"p1"}`)))
	require.Equal(t, `{"piid":"p1"}`, out.String())
}
