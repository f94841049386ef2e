/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/model"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

// codec translates between Message and the wire format of one protocol version.
type codec interface {
	version() Version
	encode(m *Message) ([]byte, error)
	decode(raw []byte) (*Message, error)
	// attachmentID returns the fixed attachment id of kind, empty when ids are generated.
	attachmentID(kind MessageKind) string
	// checkBuild rejects building kind with plugins when the version cannot carry it.
	checkBuild(kind MessageKind, plugins []format.Plugin) error
}

func codecFor(v Version, plugin format.Plugin) (codec, error) {
	switch v {
	case V2, "":
		return v2Codec{}, nil
	case V1:
		return &v1Codec{plugin: plugin}, nil
	default:
		return nil, fmt.Errorf("unsupported protocol version %q", v)
	}
}

// wireV2 is the issue-credential 2.0 message.
type wireV2 struct {
	Type              string                 `json:"@type"`
	ID                string                 `json:"@id"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialPreview *PreviewCredential     `json:"credential_preview,omitempty"`
	Formats           []Format               `json:"formats,omitempty"`
	FiltersAttach     []decorator.Attachment `json:"filters~attach,omitempty"`
	OffersAttach      []decorator.Attachment `json:"offers~attach,omitempty"`
	RequestsAttach    []decorator.Attachment `json:"requests~attach,omitempty"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach,omitempty"`
}

func (w *wireV2) attachments(kind MessageKind) *[]decorator.Attachment {
	switch kind {
	case KindProposal:
		return &w.FiltersAttach
	case KindOffer:
		return &w.OffersAttach
	case KindRequest:
		return &w.RequestsAttach
	case KindCredential:
		return &w.CredentialsAttach
	default:
		return nil
	}
}

type v2Codec struct{}

func (v2Codec) version() Version {
	return V2
}

func (v2Codec) attachmentID(MessageKind) string {
	return ""
}

func (v2Codec) checkBuild(MessageKind, []format.Plugin) error {
	return nil
}

func (c v2Codec) encode(m *Message) ([]byte, error) {
	if m.ID == "" {
		return nil, errNoID
	}

	if raw, ok, err := encodeControl(m); ok {
		return raw, err
	}

	w := &wireV2{
		Type:    m.Type(),
		ID:      m.ID,
		Thread:  threadDecorator(m.Thread),
		Comment: m.Comment,
		Formats: m.Formats,
	}

	if m.Kind == KindProposal || m.Kind == KindOffer {
		w.CredentialPreview = preview(V2, m.Preview)
	}

	att := w.attachments(m.Kind)
	if att == nil {
		return nil, fmt.Errorf("cannot encode %s message", m.Kind)
	}

	*att = m.Attachments

	return json.Marshal(w)
}

func (c v2Codec) decode(raw []byte) (*Message, error) {
	m, w, err := decodeHeader(raw, V2)
	if err != nil || w == nil {
		return m, err
	}

	var body wireV2

	if err = json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode %s message: %w", m.Kind, err)
	}

	m.Comment = body.Comment
	m.Formats = body.Formats
	m.Attachments = *body.attachments(m.Kind)

	if m.Kind == KindProposal || m.Kind == KindOffer {
		m.Preview = body.CredentialPreview
	}

	return m, nil
}

// decodeHeader decodes the parts common to all versions. Acks and problem reports are decoded completely and
// returned with a nil map.
func decodeHeader(raw []byte, v Version) (*Message, service.DIDCommMsgMap, error) {
	msg, err := service.ParseDIDCommMsgMap(raw)
	if err != nil {
		return nil, nil, err
	}

	version, kind, err := versionAndKind(msg.Type())
	if err != nil {
		return nil, nil, err
	}

	if version != v {
		return nil, nil, fmt.Errorf("%s message given to %s codec", version, v)
	}

	if msg.ID() == "" {
		return nil, nil, errNoID
	}

	m := &Message{
		Version: v,
		Kind:    kind,
		ID:      msg.ID(),
		Thread:  decorator.Thread{PID: msg.ParentThreadID()},
		raw:     append([]byte(nil), raw...),
	}

	thid, err := msg.ThreadID()
	if err != nil {
		return nil, nil, err
	}

	if thid != m.ID {
		m.Thread.ID = thid
	}

	switch kind {
	case KindAck:
		ack := model.Ack{}
		if err = msg.Decode(&ack); err != nil {
			return nil, nil, fmt.Errorf("decode ack: %w", err)
		}

		m.Status = ack.Status

		return m, nil, nil
	case KindProblemReport:
		report := model.ProblemReport{}
		if err = msg.Decode(&report); err != nil {
			return nil, nil, fmt.Errorf("decode problem report: %w", err)
		}

		m.Description = &report.Description

		return m, nil, nil
	default:
		return m, msg, nil
	}
}

// encodeControl encodes acks and problem reports, which look the same in all versions.
func encodeControl(m *Message) ([]byte, bool, error) {
	switch m.Kind {
	case KindAck:
		raw, err := json.Marshal(&model.Ack{
			Type:   m.Type(),
			ID:     m.ID,
			Status: m.Status,
			Thread: threadDecorator(m.Thread),
		})

		return raw, true, err
	case KindProblemReport:
		report := &model.ProblemReport{
			Type:   m.Type(),
			ID:     m.ID,
			Thread: threadDecorator(m.Thread),
		}

		if m.Description != nil {
			report.Description = *m.Description
		}

		raw, err := json.Marshal(report)

		return raw, true, err
	default:
		return nil, false, nil
	}
}

func threadDecorator(t decorator.Thread) *decorator.Thread {
	if t.ID == "" && t.PID == "" {
		return nil
	}

	return &t
}

func preview(v Version, p *PreviewCredential) *PreviewCredential {
	if p == nil {
		return nil
	}

	c := *p
	if c.Type == "" {
		c.Type = v.spec() + credentialPreview
	}

	if c.Attributes == nil {
		c.Attributes = []format.Attribute{}
	}

	return &c
}
