/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

const (
	piidPropKey          = "piid"
	threadIDPropKey      = "threadID"
	connectionIDPropKey  = "connectionID"
	rolePropKey          = "role"
	statePropKey         = "state"
	previousStatePropKey = "previousState"
	errorPropKey         = "error"
	revokedPropKey       = "revoked"
)

// EventType is the type of an exchange event.
type EventType string

const (
	// EventStateChanged is returned for every state transition.
	EventStateChanged EventType = "StateChanged"
	// EventRevocationNotificationReceived is returned when the issuer reported the credential revoked.
	EventRevocationNotificationReceived EventType = "RevocationNotificationReceived"
)

// Event is the outcome of an operation. Record is a snapshot taken after the operation.
type Event struct {
	Type          EventType
	Record        credentialexchange.Record
	PreviousState credentialexchange.State
}

// Properties returns the event properties published with the event.
func (e *Event) Properties() service.EventProperties {
	return &eventProps{event: e}
}

type eventProps struct {
	event *Event
}

// All implements EventProperties interface.
func (e *eventProps) All() map[string]interface{} {
	rec := &e.event.Record

	properties := map[string]interface{}{
		piidPropKey:          rec.ID,
		threadIDPropKey:      rec.ThreadID,
		rolePropKey:          string(rec.Role),
		statePropKey:         string(rec.State),
		previousStatePropKey: string(e.event.PreviousState),
	}

	if rec.ConnectionID != "" {
		properties[connectionIDPropKey] = rec.ConnectionID
	}

	if rec.ErrorMessage != "" {
		properties[errorPropKey] = rec.ErrorMessage
	}

	if rec.RevocationNotification != nil {
		properties[revokedPropKey] = rec.RevocationNotification.RevocationDate
	}

	return properties
}
