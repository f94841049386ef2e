/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"time"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

// FormatSelection selects the credential formats of a message and carries the options of each.
// An empty selection on an accept operation selects the formats of the received message.
type FormatSelection map[format.Key]format.Options

// Keys returns the selected format keys.
func (f FormatSelection) Keys() []format.Key {
	keys := make([]format.Key, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}

	return keys
}

// CreateProposalParams holds parameters for starting an exchange with a proposal.
type CreateProposalParams struct {
	ConnectionID   string
	ParentThreadID string
	Formats        FormatSelection
	// Attributes is the credential preview, optional when a format derives one.
	Attributes []format.Attribute
	Comment    string
	AutoAccept credentialexchange.AutoAccept
}

// CreateOfferParams holds parameters for starting an exchange with an offer.
type CreateOfferParams struct {
	ConnectionID   string
	ParentThreadID string
	Formats        FormatSelection
	Attributes     []format.Attribute
	Comment        string
	AutoAccept     credentialexchange.AutoAccept
}

// CreateRequestParams holds parameters for starting an exchange with a request.
type CreateRequestParams struct {
	ConnectionID   string
	ParentThreadID string
	Formats        FormatSelection
	Comment        string
	AutoAccept     credentialexchange.AutoAccept
}

// AcceptProposalParams holds parameters for answering a received proposal with an offer.
type AcceptProposalParams struct {
	RecordID string
	Formats  FormatSelection
	// Attributes replaces the preview of the proposal in the offer.
	Attributes []format.Attribute
	Comment    string
	AutoAccept credentialexchange.AutoAccept
}

// NegotiateProposalParams holds parameters for answering a received proposal with a different offer.
type NegotiateProposalParams struct {
	RecordID   string
	Formats    FormatSelection
	Attributes []format.Attribute
	Comment    string
	AutoAccept credentialexchange.AutoAccept
}

// AcceptOfferParams holds parameters for answering a received offer with a request.
type AcceptOfferParams struct {
	RecordID   string
	Formats    FormatSelection
	Comment    string
	AutoAccept credentialexchange.AutoAccept
}

// NegotiateOfferParams holds parameters for answering a received offer with a counter proposal.
type NegotiateOfferParams struct {
	RecordID   string
	Formats    FormatSelection
	Attributes []format.Attribute
	Comment    string
	AutoAccept credentialexchange.AutoAccept
}

// AcceptRequestParams holds parameters for issuing the credential of a received request.
type AcceptRequestParams struct {
	RecordID   string
	Formats    FormatSelection
	Comment    string
	AutoAccept credentialexchange.AutoAccept
}

// AcceptCredentialParams holds parameters for acknowledging a received credential.
type AcceptCredentialParams struct {
	RecordID string
}

// RevocationNotice reports a credential revoked by its issuer.
type RevocationNotice struct {
	CredentialRecordID string
	RevocationDate     time.Time
	Comment            string
}

type deleteOpts struct {
	credentials bool
	messages    bool
}

// DeleteOpt configures Delete.
type DeleteOpt func(o *deleteOpts)

// WithDeleteAssociatedCredentials sets whether credentials stored by the exchange are deleted, true by default.
func WithDeleteAssociatedCredentials(v bool) DeleteOpt {
	return func(o *deleteOpts) {
		o.credentials = v
	}
}

// WithDeleteAssociatedMessages sets whether the messages of the exchange are deleted, true by default.
func WithDeleteAssociatedMessages(v bool) DeleteOpt {
	return func(o *deleteOpts) {
		o.messages = v
	}
}
