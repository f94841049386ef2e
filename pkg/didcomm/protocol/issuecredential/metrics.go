/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import "github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"

// Metrics collects engine metrics.
type Metrics interface {
	Transition(v Version, operation string, from, to credentialexchange.State)
	Failure(v Version, operation string)
	AutoAccept(v Version, kind MessageKind, accepted bool)
}

type noopMetrics struct{}

func (noopMetrics) Transition(Version, string, credentialexchange.State, credentialexchange.State) {}

func (noopMetrics) Failure(Version, string) {}

func (noopMetrics) AutoAccept(Version, MessageKind, bool) {}
