/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package model holds the messages shared by DIDComm protocols: the closing ack and the problem report.
package model

import (
	"fmt"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

// AckStatusOK is the status of a successful acknowledgement.
const AckStatusOK = "OK"

// Ack closes a thread.
type Ack struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Status string            `json:"status,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
}

// ProblemReport tells the other party that a thread was abandoned and why.
type ProblemReport struct {
	Type        string            `json:"@type"`
	ID          string            `json:"@id"`
	Description Code              `json:"description"`
	Thread      *decorator.Thread `json:"~thread,omitempty"`
	WebRedirect interface{}       `json:"~web-redirect,omitempty"`
}

// Code is a machine readable problem code with optional English text.
type Code struct {
	Code string `json:"code"`
	En   string `json:"en,omitempty"`
}

// String formats c as "code: text". The separator is kept when the report has no English text.
func (c Code) String() string {
	return fmt.Sprintf("%s: %s", c.Code, c.En)
}
