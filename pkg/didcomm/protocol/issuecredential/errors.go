/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the current state of an exchange.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnsupportedFormat is returned when no format plugin supports any format of a message.
	ErrUnsupportedFormat = errors.New("unsupported credential format")
	// ErrMissingFormatPayload is returned when a format in use on the exchange has no payload in a message.
	ErrMissingFormatPayload = errors.New("missing format payload")
	// ErrAttachmentNotFound is returned when a format entry refers to an attachment that is not in the message.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrUnauthorizedSender is returned when a message does not come from the counterparty of the exchange.
	ErrUnauthorizedSender = errors.New("unauthorized sender")
	// ErrRecordNotFound is returned when there is no exchange for a record id or thread id.
	ErrRecordNotFound = errors.New("credential exchange not found")
	// ErrNegotiationLimit is returned when an exchange was negotiated more often than allowed.
	ErrNegotiationLimit = errors.New("negotiation round limit reached")
	// ErrConnectionRequired is returned when an operation needs a connection and the exchange has none.
	ErrConnectionRequired = errors.New("connection required")
)

// StateError is the error of an operation attempted in the wrong state.
// It matches ErrInvalidState with errors.Is.
type StateError struct {
	Operation string
	Current   credentialexchange.State
	Expected  []credentialexchange.State
}

func (e *StateError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, s := range e.Expected {
		expected[i] = string(s)
	}

	return fmt.Sprintf("%s: %s: current state is %q, expected %s", ErrInvalidState, e.Operation, e.Current,
		strings.Join(expected, " or "))
}

// Is implements errors.Is.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}
