/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import "github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"

// Handler describes middleware interface.
type Handler interface {
	Handle(metadata MetaData) error
}

// Middleware function receives next handler and returns handler that needs to be executed.
type Middleware func(next Handler) Handler

// HandlerFunc is a helper type which implements the middleware Handler interface.
type HandlerFunc func(metadata MetaData) error

// Handle implements function to satisfy the Handler interface.
func (hf HandlerFunc) Handle(metadata MetaData) error {
	return hf(metadata)
}

// MetaData provides helpful information for the processing of a completed step.
type MetaData interface {
	// Message is the message received or produced by the step, nil if there is none.
	Message() *Message
	// Inbound reports whether Message was received.
	Inbound() bool
	// Record is a snapshot of the exchange after the step.
	Record() credentialexchange.Record
	// StateName provides the state name.
	StateName() credentialexchange.State
}

// Chain wraps last with mws. The first middleware runs first.
func Chain(last Handler, mws ...Middleware) Handler {
	h := last

	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

type stepMetaData struct {
	msg     *Message
	inbound bool
	rec     credentialexchange.Record
}

// NewMetaData returns the metadata of a step that produced res. Inbound is the message the step processed,
// nil for steps started locally.
func NewMetaData(res *Result, inbound *Message) MetaData {
	if inbound != nil {
		return &stepMetaData{msg: inbound, inbound: true, rec: res.Record}
	}

	return &stepMetaData{msg: res.Message, rec: res.Record}
}

func (m *stepMetaData) Message() *Message {
	return m.msg
}

func (m *stepMetaData) Inbound() bool {
	return m.inbound
}

func (m *stepMetaData) Record() credentialexchange.Record {
	return m.rec
}

func (m *stepMetaData) StateName() credentialexchange.State {
	return m.rec.State
}
