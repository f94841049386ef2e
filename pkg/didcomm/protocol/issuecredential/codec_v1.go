/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

// Fixed attachment ids of issue-credential 1.0.
const (
	V1FilterAttachID     = "libindy-cred-filter-0"
	V1OfferAttachID      = "libindy-cred-offer-0"
	V1RequestAttachID    = "libindy-cred-request-0"
	V1CredentialAttachID = "libindy-cred-0"
)

var errV1Request = errors.New("starting from a request is not supported for v1")

// wireV1 is the issue-credential 1.0 message. The proposal has no attachment: the fields of its single
// payload are carried at the top level of the message.
type wireV1 struct {
	Type               string                 `json:"@type"`
	ID                 string                 `json:"@id"`
	Thread             *decorator.Thread      `json:"~thread,omitempty"`
	Comment            string                 `json:"comment,omitempty"`
	CredentialProposal *PreviewCredential     `json:"credential_proposal,omitempty"`
	CredentialPreview  *PreviewCredential     `json:"credential_preview,omitempty"`
	OffersAttach       []decorator.Attachment `json:"offers~attach,omitempty"`
	RequestsAttach     []decorator.Attachment `json:"requests~attach,omitempty"`
	CredentialsAttach  []decorator.Attachment `json:"credentials~attach,omitempty"`
}

var v1ProposalFields = map[string]struct{}{ //nolint:gochecknoglobals
	"@type": {}, "@id": {}, "~thread": {}, "comment": {}, "credential_proposal": {},
}

// v1Codec is bound to the one plugin of a v1 exchange, which names the formats of received messages.
type v1Codec struct {
	plugin format.Plugin
}

func (*v1Codec) version() Version {
	return V1
}

func (*v1Codec) attachmentID(kind MessageKind) string {
	switch kind {
	case KindProposal:
		return V1FilterAttachID
	case KindOffer:
		return V1OfferAttachID
	case KindRequest:
		return V1RequestAttachID
	case KindCredential:
		return V1CredentialAttachID
	default:
		return ""
	}
}

func (*v1Codec) checkBuild(_ MessageKind, plugins []format.Plugin) error {
	if len(plugins) != 1 {
		return fmt.Errorf("%w: v1 exchanges use exactly one credential format, got %d", ErrUnsupportedFormat,
			len(plugins))
	}

	return nil
}

func (c *v1Codec) encode(m *Message) ([]byte, error) {
	if m.ID == "" {
		return nil, errNoID
	}

	if raw, ok, err := encodeControl(m); ok {
		return raw, err
	}

	if len(m.Attachments) > 1 {
		return nil, fmt.Errorf("v1 %s carries %d attachments, at most one is allowed", m.Kind, len(m.Attachments))
	}

	w := &wireV1{
		Type:    m.Type(),
		ID:      m.ID,
		Thread:  threadDecorator(m.Thread),
		Comment: m.Comment,
	}

	switch m.Kind {
	case KindProposal:
		w.CredentialProposal = preview(V1, m.Preview)

		return encodeV1Proposal(w, m.Attachments)
	case KindOffer:
		w.CredentialPreview = preview(V1, m.Preview)
		w.OffersAttach = m.Attachments
	case KindRequest:
		w.RequestsAttach = m.Attachments
	case KindCredential:
		w.CredentialsAttach = m.Attachments
	default:
		return nil, fmt.Errorf("cannot encode %s message", m.Kind)
	}

	return json.Marshal(w)
}

func encodeV1Proposal(w *wireV1, attachments []decorator.Attachment) ([]byte, error) {
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}

	if len(attachments) == 0 {
		return raw, nil
	}

	fields := map[string]json.RawMessage{}
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	payload, err := attachments[0].Data.Fetch()
	if err != nil {
		return nil, fmt.Errorf("v1 proposal payload: %w", err)
	}

	extra := map[string]json.RawMessage{}
	if err = json.Unmarshal(payload, &extra); err != nil {
		return nil, fmt.Errorf("v1 proposal payload must be a JSON object: %w", err)
	}

	for k, v := range extra {
		if _, ok := v1ProposalFields[k]; ok || strings.HasPrefix(k, "~") {
			return nil, fmt.Errorf("v1 proposal payload field %q collides with the message", k)
		}

		fields[k] = v
	}

	return json.Marshal(fields)
}

func (c *v1Codec) decode(raw []byte) (*Message, error) {
	m, msg, err := decodeHeader(raw, V1)
	if err != nil || msg == nil {
		return m, err
	}

	var body wireV1

	if err = json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode %s message: %w", m.Kind, err)
	}

	m.Comment = body.Comment

	switch m.Kind {
	case KindProposal:
		m.Preview = body.CredentialProposal

		att, e := v1ProposalAttachment(raw)
		if e != nil {
			return nil, e
		}

		if att != nil {
			m.Attachments = []decorator.Attachment{*att}
		}
	case KindOffer:
		m.Preview = body.CredentialPreview
		m.Attachments = body.OffersAttach
	case KindRequest:
		m.Attachments = body.RequestsAttach
	case KindCredential:
		m.Attachments = body.CredentialsAttach
	}

	if len(m.Attachments) > 1 {
		return nil, fmt.Errorf("v1 %s carries %d attachments, at most one is allowed", m.Kind, len(m.Attachments))
	}

	if len(m.Attachments) == 1 && c.plugin != nil {
		m.Formats = []Format{{AttachID: m.Attachments[0].ID, Format: c.plugin.FormatID(m.Kind.step())}}
	}

	return m, nil
}

// v1ProposalAttachment gathers the payload fields of a v1 proposal into an attachment.
func v1ProposalAttachment(raw []byte) (*decorator.Attachment, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	for k := range fields {
		if _, ok := v1ProposalFields[k]; ok || strings.HasPrefix(k, "~") {
			delete(fields, k)
		}
	}

	if len(fields) == 0 {
		return nil, nil
	}

	att, err := decorator.NewJSONAttachment(V1FilterAttachID, fields)
	if err != nil {
		return nil, err
	}

	return &att, nil
}
