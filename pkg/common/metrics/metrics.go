/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics exports credential exchange engine metrics to prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

const namespace = "credex"

// Metrics implements issuecredential.Metrics with prometheus collectors.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	autoAccept  *prometheus.CounterVec
}

// New creates the collectors and registers them with a dedicated registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "issuecredential",
				Name:      "transitions_total",
				Help:      "Completed exchange state transitions.",
			},
			[]string{"version", "operation", "from", "to"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "issuecredential",
				Name:      "failures_total",
				Help:      "Protocol operations that failed.",
			},
			[]string{"version", "operation"},
		),
		autoAccept: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "issuecredential",
				Name:      "auto_accept_decisions_total",
				Help:      "Auto accept decisions by received message kind.",
			},
			[]string{"version", "kind", "accepted"},
		),
	}

	for _, c := range []prometheus.Collector{m.transitions, m.failures, m.autoAccept} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Transition counts a completed state transition.
func (m *Metrics) Transition(v issuecredential.Version, operation string, from, to credentialexchange.State) {
	m.transitions.WithLabelValues(string(v), operation, stateLabel(from), string(to)).Inc()
}

// Failure counts a failed operation.
func (m *Metrics) Failure(v issuecredential.Version, operation string) {
	m.failures.WithLabelValues(string(v), operation).Inc()
}

// AutoAccept counts an auto accept decision.
func (m *Metrics) AutoAccept(v issuecredential.Version, kind issuecredential.MessageKind, accepted bool) {
	m.autoAccept.WithLabelValues(string(v), string(kind), strconv.FormatBool(accepted)).Inc()
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func stateLabel(s credentialexchange.State) string {
	if s == "" {
		return "start"
	}

	return string(s)
}
