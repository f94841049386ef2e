/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credentialexchange

import (
	"time"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
)

// Role of the agent in an exchange.
type Role string

const (
	// RoleHolder receives the credential.
	RoleHolder Role = "holder"
	// RoleIssuer issues the credential.
	RoleIssuer Role = "issuer"
)

// State of an exchange.
type State string

// Exchange states.
const (
	StateProposalSent       State = "proposal-sent"
	StateProposalReceived   State = "proposal-received"
	StateOfferSent          State = "offer-sent"
	StateOfferReceived      State = "offer-received"
	StateRequestSent        State = "request-sent"
	StateRequestReceived    State = "request-received"
	StateCredentialIssued   State = "credential-issued"
	StateCredentialReceived State = "credential-received"
	StateDone               State = "done"
	StateDeclined           State = "declined"
	StateAbandoned          State = "abandoned"
)

// Terminal reports whether no further protocol step may run in s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateDeclined || s == StateAbandoned
}

// AutoAccept controls whether received messages are answered without user interaction.
type AutoAccept string

const (
	// AutoAcceptAlways always continues.
	AutoAcceptAlways AutoAccept = "always"
	// AutoAcceptContentApproved continues when the received content matches what was previously exchanged.
	AutoAcceptContentApproved AutoAccept = "contentApproved"
	// AutoAcceptNever never continues.
	AutoAcceptNever AutoAccept = "never"
)

// RevocationNotification is set when the issuer reports the credential revoked.
type RevocationNotification struct {
	RevocationDate time.Time `json:"revocationDate"`
	Comment        string    `json:"comment,omitempty"`
}

// Record is the state of one credential exchange.
type Record struct {
	ID                     string                     `json:"id"`
	ThreadID               string                     `json:"threadId"`
	ParentThreadID         string                     `json:"parentThreadId,omitempty"`
	ConnectionID           string                     `json:"connectionId,omitempty"`
	ProtocolVersion        string                     `json:"protocolVersion"`
	Role                   Role                       `json:"role"`
	State                  State                      `json:"state"`
	CredentialAttributes   []format.Attribute         `json:"credentialAttributes,omitempty"`
	Credentials            []format.CredentialBinding `json:"credentials,omitempty"`
	AutoAcceptCredential   AutoAccept                 `json:"autoAcceptCredential,omitempty"`
	ErrorMessage           string                     `json:"errorMessage,omitempty"`
	RevocationNotification *RevocationNotification    `json:"revocationNotification,omitempty"`
	// NegotiationRounds counts negotiate-proposal and negotiate-offer steps.
	NegotiationRounds int       `json:"negotiationRounds,omitempty"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of r.
func (r *Record) Clone() Record {
	c := *r

	if r.CredentialAttributes != nil {
		c.CredentialAttributes = append([]format.Attribute(nil), r.CredentialAttributes...)
	}

	if r.Credentials != nil {
		c.Credentials = append([]format.CredentialBinding(nil), r.Credentials...)
	}

	if r.RevocationNotification != nil {
		n := *r.RevocationNotification
		c.RevocationNotification = &n
	}

	return c
}
