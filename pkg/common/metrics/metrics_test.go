/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

func TestMetrics(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	var _ issuecredential.Metrics = m

	m.Transition(issuecredential.V2, "CreateOffer", "", credentialexchange.StateOfferSent)
	m.Transition(issuecredential.V2, "CreateOffer", "", credentialexchange.StateOfferSent)
	m.Failure(issuecredential.V1, "ProcessRequest")
	m.AutoAccept(issuecredential.V2, issuecredential.KindOffer, true)

	require.Equal(t, 2.0, testutil.ToFloat64(
		m.transitions.WithLabelValues("v2", "CreateOffer", "start", "offer-sent")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("v1", "ProcessRequest")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.autoAccept.WithLabelValues("v2", "offer", "true")))

	t.Run("handler", func(t *testing.T) {
		rr := httptest.NewRecorder()
		m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		require.Contains(t, rr.Body.String(), "credex_issuecredential_transitions_total")
	})
}
