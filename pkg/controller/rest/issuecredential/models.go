/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	cmd "github.com/hyperledger/aries-credential-exchange/pkg/controller/command/issuecredential"
)

// issueCredentialSendProposalRequest model
//
// This is used for operation to send a proposal
//
// swagger:parameters issueCredentialSendProposal
type issueCredentialSendProposalRequest struct { // nolint: unused,deadcode
	// in: body
	Body cmd.SendProposalArgs
}

// issueCredentialSendOfferRequest model
//
// This is used for operation to send an offer
//
// swagger:parameters issueCredentialSendOffer
type issueCredentialSendOfferRequest struct { // nolint: unused,deadcode
	// in: body
	Body cmd.SendOfferArgs
}

// issueCredentialSendRequestRequest model
//
// This is used for operation to send a request
//
// swagger:parameters issueCredentialSendRequest
type issueCredentialSendRequestRequest struct { // nolint: unused,deadcode
	// in: body
	Body cmd.SendRequestArgs
}

// issueCredentialAcceptProposalRequest model
//
// This is used for operation to accept a proposal
//
// swagger:parameters issueCredentialAcceptProposal
type issueCredentialAcceptProposalRequest struct { // nolint: unused,deadcode
	// Protocol instance ID
	//
	// in: path
	// required: true
	PIID string `json:"piid"`

	// in: body
	Body cmd.AcceptProposalArgs
}

// issueCredentialNegotiateProposalRequest model
//
// This is used for operation to answer a proposal with a different offer
//
// swagger:parameters issueCredentialNegotiateProposal
type issueCredentialNegotiateProposalRequest struct { // nolint: unused,deadcode
	// Protocol instance ID
	//
	// in: path
	// required: true
	PIID string `json:"piid"`

	// in: body
	// required: true
	Body cmd.NegotiateProposalArgs
}

// issueCredentialAcceptOfferRequest model
//
// This is used for operation to accept an offer
//
// swagger:parameters issueCredentialAcceptOffer
type issueCredentialAcceptOfferRequest struct { // nolint: unused,deadcode
	// Protocol instance ID
	//
	// in: path
	// required: true
	PIID string `json:"piid"`

	// in: body
	Body cmd.AcceptOfferArgs
}

// issueCredentialNegotiateOfferRequest model
//
// This is used for operation to answer an offer with a counter proposal
//
// swagger:parameters issueCredentialNegotiateOffer
type issueCredentialNegotiateOfferRequest struct { // nolint: unused,deadcode
	// Protocol instance ID
	//
	// in: path
	// required: true
	PIID string `json:"piid"`

	// in: body
	// required: true
	Body cmd.NegotiateOfferArgs
}

// issueCredentialAcceptRequestRequest model
//
// This is used for operation to accept a request
//
// swagger:parameters issueCredentialAcceptRequest
type issueCredentialAcceptRequestRequest struct { // nolint: unused,deadcode
	// Protocol instance ID
	//
	// in: path
	// required: true
	PIID string `json:"piid"`

	// in: body
	Body cmd.AcceptRequestArgs
}

// issueCredentialPIIDRequest model
//
// This is used for operations that only take the protocol instance ID
//
// swagger:parameters issueCredentialDeclineOffer issueCredentialAcceptCredential issueCredentialGetRecord issueCredentialGetFormatData
type issueCredentialPIIDRequest struct { // nolint: unused,deadcode
	// Protocol instance ID
	//
	// in: path
	// required: true
	PIID string `json:"piid"`
}

// issueCredentialSendProblemReportRequest model
//
// This is used for operation to abandon an exchange
//
// swagger:parameters issueCredentialSendProblemReport
type issueCredentialSendProblemReportRequest struct { // nolint: unused,deadcode
	// Protocol instance ID
	//
	// in: path
	// required: true
	PIID string `json:"piid"`

	// in: body
	// required: true
	Body cmd.SendProblemReportArgs
}

// issueCredentialRevocationNotificationRequest model
//
// This is used for operation to record a revoked credential
//
// swagger:parameters issueCredentialRevocationNotification
type issueCredentialRevocationNotificationRequest struct { // nolint: unused,deadcode
	// in: body
	// required: true
	Body cmd.RevocationNotificationArgs
}

// issueCredentialFindRecordsRequest model
//
// This is used for operation to query exchanges
//
// swagger:parameters issueCredentialFindRecords
type issueCredentialFindRecordsRequest struct { // nolint: unused,deadcode
	// in: query
	ThreadID string `json:"thread_id"`
	// in: query
	Role string `json:"role"`
	// in: query
	ConnectionID string `json:"connection_id"`
	// in: query
	CredentialRecordID string `json:"credential_record_id"`
}

// issueCredentialDeleteRecordRequest model
//
// This is used for operation to delete an exchange
//
// swagger:parameters issueCredentialDeleteRecord
type issueCredentialDeleteRecordRequest struct { // nolint: unused,deadcode
	// Protocol instance ID
	//
	// in: path
	// required: true
	PIID string `json:"piid"`
	// in: query
	KeepCredentials bool `json:"keep_credentials"`
	// in: query
	KeepMessages bool `json:"keep_messages"`
}

// issueCredentialRecordResponse model
//
// Represents an exchange after an operation
//
// swagger:response issueCredentialRecordResponse
type issueCredentialRecordResponse struct { // nolint: unused,deadcode
	// in: body
	Body cmd.RecordResponse
}

// issueCredentialFindRecordsResponse model
//
// Represents the exchanges matching a query
//
// swagger:response issueCredentialFindRecordsResponse
type issueCredentialFindRecordsResponse struct { // nolint: unused,deadcode
	// in: body
	Body cmd.FindRecordsResponse
}

// issueCredentialFormatDataResponse model
//
// Represents the format payloads of an exchange
//
// swagger:response issueCredentialFormatDataResponse
type issueCredentialFormatDataResponse struct { // nolint: unused,deadcode
	// in: body
	Body cmd.FormatDataResponse
}

// issueCredentialEmptyResponse model
//
// swagger:response issueCredentialEmptyResponse
type issueCredentialEmptyResponse struct{} // nolint: unused,deadcode
