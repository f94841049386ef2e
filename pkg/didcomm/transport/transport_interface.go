/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package transport defines how envelopes move between agents.
package transport

import (
	"context"
	"encoding/json"
)

// MediaTypeV1PlaintextPayload is the content type of a plaintext DIDComm envelope (Aries RFC 0044).
const MediaTypeV1PlaintextPayload = "application/json;flavor=didcomm-msg"

// Envelope carries a plaintext protocol message between two agents.
type Envelope struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Message json.RawMessage `json:"message"`
}

// OutboundTransport delivers serialized envelopes to an endpoint.
type OutboundTransport interface {
	Send(ctx context.Context, data []byte, destination string) error
	// Accept reports whether destination uses a scheme this transport serves.
	Accept(destination string) bool
}

// InboundMessageHandler handles an envelope received by an inbound transport.
type InboundMessageHandler func(ctx context.Context, env *Envelope) error
