/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"time"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

// Peer identifies the counterparty of an exchange. Either ConnectionID or both DIDs are set.
type Peer struct {
	// ConnectionID of a completed connection.
	ConnectionID string `json:"connection_id,omitempty"`
	// MyDID sent from.
	MyDID string `json:"my_did,omitempty"`
	// TheirDID sent to.
	TheirDID string `json:"their_did,omitempty"`
	// Connectionless sends to TheirDID without a connection.
	Connectionless bool `json:"connectionless,omitempty"`
}

// SendProposalArgs model
//
// This is used for sending a proposal.
type SendProposalArgs struct {
	Peer
	// ProtocolVersion is v1 or v2, the agent default when empty.
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ParentThreadID  string `json:"parent_thread_id,omitempty"`
	// Formats maps credential format keys to their options.
	Formats    map[format.Key]format.Options `json:"formats"`
	Attributes []format.Attribute            `json:"attributes,omitempty"`
	Comment    string                        `json:"comment,omitempty"`
	AutoAccept credentialexchange.AutoAccept `json:"auto_accept,omitempty"`
}

// SendOfferArgs model
//
// This is used for sending an offer.
type SendOfferArgs struct {
	Peer
	ProtocolVersion string                        `json:"protocol_version,omitempty"`
	ParentThreadID  string                        `json:"parent_thread_id,omitempty"`
	Formats         map[format.Key]format.Options `json:"formats"`
	Attributes      []format.Attribute            `json:"attributes,omitempty"`
	Comment         string                        `json:"comment,omitempty"`
	AutoAccept      credentialexchange.AutoAccept `json:"auto_accept,omitempty"`
}

// SendRequestArgs model
//
// This is used for sending a request.
type SendRequestArgs struct {
	Peer
	ProtocolVersion string                        `json:"protocol_version,omitempty"`
	ParentThreadID  string                        `json:"parent_thread_id,omitempty"`
	Formats         map[format.Key]format.Options `json:"formats"`
	Comment         string                        `json:"comment,omitempty"`
	AutoAccept      credentialexchange.AutoAccept `json:"auto_accept,omitempty"`
}

// AcceptProposalArgs model
//
// This is used for accepting a proposal.
type AcceptProposalArgs struct {
	// PIID Protocol instance ID
	PIID string `json:"piid"`
	Peer
	Formats    map[format.Key]format.Options `json:"formats,omitempty"`
	Attributes []format.Attribute            `json:"attributes,omitempty"`
	Comment    string                        `json:"comment,omitempty"`
	AutoAccept credentialexchange.AutoAccept `json:"auto_accept,omitempty"`
}

// NegotiateProposalArgs model
//
// This is used when the Issuer answers a proposal with a different offer.
type NegotiateProposalArgs struct {
	// PIID Protocol instance ID
	PIID string `json:"piid"`
	Peer
	Formats    map[format.Key]format.Options `json:"formats"`
	Attributes []format.Attribute            `json:"attributes,omitempty"`
	Comment    string                        `json:"comment,omitempty"`
	AutoAccept credentialexchange.AutoAccept `json:"auto_accept,omitempty"`
}

// AcceptOfferArgs model
//
// This is used for accepting an offer.
type AcceptOfferArgs struct {
	// PIID Protocol instance ID
	PIID string `json:"piid"`
	Peer
	Formats    map[format.Key]format.Options `json:"formats,omitempty"`
	Comment    string                        `json:"comment,omitempty"`
	AutoAccept credentialexchange.AutoAccept `json:"auto_accept,omitempty"`
}

// NegotiateOfferArgs model
//
// This is used when the Holder answers an offer with a counter proposal.
type NegotiateOfferArgs struct {
	// PIID Protocol instance ID
	PIID string `json:"piid"`
	Peer
	Formats    map[format.Key]format.Options `json:"formats"`
	Attributes []format.Attribute            `json:"attributes,omitempty"`
	Comment    string                        `json:"comment,omitempty"`
	AutoAccept credentialexchange.AutoAccept `json:"auto_accept,omitempty"`
}

// AcceptRequestArgs model
//
// This is used for accepting a request.
type AcceptRequestArgs struct {
	// PIID Protocol instance ID
	PIID string `json:"piid"`
	Peer
	Formats    map[format.Key]format.Options `json:"formats,omitempty"`
	Comment    string                        `json:"comment,omitempty"`
	AutoAccept credentialexchange.AutoAccept `json:"auto_accept,omitempty"`
}

// PIIDArgs model
//
// This is used by the commands that only need the protocol instance ID.
type PIIDArgs struct {
	// PIID Protocol instance ID
	PIID string `json:"piid"`
	Peer
}

// SendProblemReportArgs model
//
// This is used for abandoning an exchange.
type SendProblemReportArgs struct {
	// PIID Protocol instance ID
	PIID string `json:"piid"`
	Peer
	// Description of the problem.
	Description string `json:"description"`
}

// RevocationNotificationArgs model
//
// This is used for recording that the issuer revoked a credential.
type RevocationNotificationArgs struct {
	// CredentialRecordID of the revoked credential.
	CredentialRecordID string    `json:"credential_record_id"`
	RevocationDate     time.Time `json:"revocation_date,omitempty"`
	Comment            string    `json:"comment,omitempty"`
}

// FindRecordsArgs model
//
// This is used for querying exchanges. Empty fields match every exchange.
type FindRecordsArgs struct {
	ThreadID           string                  `json:"thread_id,omitempty"`
	Role               credentialexchange.Role `json:"role,omitempty"`
	ConnectionID       string                  `json:"connection_id,omitempty"`
	CredentialRecordID string                  `json:"credential_record_id,omitempty"`
}

// DeleteRecordArgs model
//
// This is used for deleting an exchange.
type DeleteRecordArgs struct {
	// PIID Protocol instance ID
	PIID string `json:"piid"`
	// KeepCredentials leaves the credentials stored by the exchange.
	KeepCredentials bool `json:"keep_credentials,omitempty"`
	// KeepMessages leaves the messages of the exchange.
	KeepMessages bool `json:"keep_messages,omitempty"`
}

// RecordResponse model
//
// Represents the exchange after a command.
type RecordResponse struct {
	Record credentialexchange.Record `json:"record"`
}

// FindRecordsResponse model
//
// Represents the exchanges matching a query.
type FindRecordsResponse struct {
	Records []credentialexchange.Record `json:"records"`
}

// FormatDataResponse model
//
// Represents the format payloads of an exchange.
type FormatDataResponse struct {
	FormatData *protocol.FormatData `json:"format_data"`
}

// EmptyResponse model
//
// Represents a command without result.
type EmptyResponse struct{}
