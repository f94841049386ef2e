/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/controller/command"
)

const (
	invalidRequest = command.Code(command.IssueCredential) + iota
	sendOfferFailed
)

type route struct {
	path, method string
	handle       http.HandlerFunc
}

func (r route) Path() string             { return r.path }
func (r route) Method() string           { return r.method }
func (r route) Handle() http.HandlerFunc { return r.handle }

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) genericErrorBody {
	t.Helper()

	var body genericErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	return body
}

func TestSendError(t *testing.T) {
	tests := []struct {
		name   string
		err    command.Error
		status int
	}{
		{
			name:   "validation error",
			err:    command.NewValidationError(invalidRequest, errors.New("piid is mandatory")),
			status: http.StatusBadRequest,
		},
		{
			name:   "execute error",
			err:    command.NewExecuteError(sendOfferFailed, errors.New("no endpoint for did:example:holder")),
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			SendError(rr, tc.err)

			require.Equal(t, tc.status, rr.Code)
			require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			require.Equal(t, genericErrorBody{Code: tc.err.Code(), Message: tc.err.Error()}, decodeErrorBody(t, rr))
		})
	}
}

func TestSendHTTPStatusError(t *testing.T) {
	rr := httptest.NewRecorder()

	SendHTTPStatusError(rr, http.StatusNotFound, invalidRequest, errors.New("record not found"))

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, genericErrorBody{Code: invalidRequest, Message: "record not found"}, decodeErrorBody(t, rr))

	t.Run("write failure is logged", func(t *testing.T) {
		SendHTTPStatusError(&failingWriter{}, http.StatusBadRequest, command.UnknownStatus, errors.New("x"))
	})
}

func TestExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		rr := httptest.NewRecorder()

		Execute(func(rw io.Writer, req io.Reader) command.Error {
			_, err := io.Copy(rw, req)
			require.NoError(t, err)

			return nil
		}, rr, strings.NewReader(`{"piid":"rec-1"}`))

		require.Equal(t, http.StatusOK, rr.Code)
		require.JSONEq(t, `{"piid":"rec-1"}`, rr.Body.String())
	})

	t.Run("command error", func(t *testing.T) {
		rr := httptest.NewRecorder()

		Execute(func(rw io.Writer, req io.Reader) command.Error {
			return command.NewValidationError(invalidRequest, errors.New("sample"))
		}, rr, nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, genericErrorBody{Code: invalidRequest, Message: "sample"}, decodeErrorBody(t, rr))
	})
}

func TestRegisterHandlers(t *testing.T) {
	router := mux.NewRouter()

	RegisterHandlers(router,
		route{path: "/issuecredential/{piid}/accept-offer", method: http.MethodPost,
			handle: func(rw http.ResponseWriter, r *http.Request) {
				_, _ = rw.Write([]byte(mux.Vars(r)["piid"]))
			}},
	)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/issuecredential/rec-1/accept-offer", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "rec-1", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/issuecredential/rec-1/accept-offer", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

type failingWriter struct{}

func (failingWriter) Header() http.Header { return http.Header{} }

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("failed to write body") }

func (failingWriter) WriteHeader(int) {}
