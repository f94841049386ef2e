/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import "errors"

// ErrNilChannel is returned when a nil channel is registered for state events.
var ErrNilChannel = errors.New("channel is nil")

// StateMsgType tells whether a state event is emitted before or after the transition.
type StateMsgType int

const (
	// PreState is emitted before a transition is committed.
	PreState StateMsgType = iota
	// PostState is emitted once the new state of an exchange has been stored.
	PostState
)

func (t StateMsgType) String() string {
	if t == PreState {
		return "pre_state"
	}

	return "post_state"
}

// StateMsg reports a state change of a protocol exchange to the subscribers registered with RegisterMsgEvent.
type StateMsg struct {
	ProtocolName string
	Type         StateMsgType
	// StateID is the state the exchange is in after the step, for example "offer-received".
	StateID string
	// Msg is the received message that caused the step, nil for steps started locally.
	Msg DIDCommMsgMap
	// Properties carry the exchange identifiers, see the issuecredential properties.
	Properties EventProperties
}

// EventProperties is event related data. Values must be JSON serializable.
type EventProperties interface {
	All() map[string]interface{}
}

// Event is implemented by protocol clients emitting state events.
type Event interface {
	RegisterMsgEvent(ch chan<- StateMsg) error
	UnregisterMsgEvent(ch chan<- StateMsg) error
}
