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
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/model"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

const (
	// Name defines the protocol name.
	Name = "issue-credential"
	// SpecV1 defines the protocol spec V1.
	SpecV1 = "https://didcomm.org/issue-credential/1.0/"
	// SpecV2 defines the protocol spec V2.
	SpecV2 = "https://didcomm.org/issue-credential/2.0/"

	proposeCredential  = "propose-credential"
	offerCredential    = "offer-credential"
	requestCredential  = "request-credential"
	issueCredential    = "issue-credential"
	ackMsg             = "ack"
	problemReportMsg   = "problem-report"
	credentialPreview  = "credential-preview"
	problemCodeAbandon = "issuance-abandoned"
)

// Version is a protocol version.
type Version string

const (
	// V1 is issue-credential 1.0: one credential format per exchange.
	V1 Version = "v1"
	// V2 is issue-credential 2.0.
	V2 Version = "v2"
)

func (v Version) spec() string {
	if v == V1 {
		return SpecV1
	}

	return SpecV2
}

// MessageKind is the kind of protocol message.
type MessageKind string

const (
	// KindProposal propose-credential.
	KindProposal MessageKind = "proposal"
	// KindOffer offer-credential.
	KindOffer MessageKind = "offer"
	// KindRequest request-credential.
	KindRequest MessageKind = "request"
	// KindCredential issue-credential.
	KindCredential MessageKind = "credential"
	// KindAck ack.
	KindAck MessageKind = "ack"
	// KindProblemReport problem-report.
	KindProblemReport MessageKind = "problem-report"
)

var kindTypes = map[MessageKind]string{ //nolint:gochecknoglobals
	KindProposal:      proposeCredential,
	KindOffer:         offerCredential,
	KindRequest:       requestCredential,
	KindCredential:    issueCredential,
	KindAck:           ackMsg,
	KindProblemReport: problemReportMsg,
}

// MessageType returns the @type of kind in version v.
func MessageType(v Version, kind MessageKind) string {
	return v.spec() + kindTypes[kind]
}

func (k MessageKind) step() format.Step {
	return format.Step(k)
}

// Format contains the value of the attachment @id and the verifiable credential format of the attachment.
type Format struct {
	AttachID string `json:"attach_id"`
	Format   string `json:"format"`
}

// PreviewCredential is used to construct a preview of the data for the credential that is to be issued.
type PreviewCredential struct {
	Type       string             `json:"@type,omitempty"`
	Attributes []format.Attribute `json:"attributes"`
}

// Message is a protocol message of any version and kind.
type Message struct {
	Version     Version
	Kind        MessageKind
	ID          string
	Thread      decorator.Thread
	Comment     string
	Formats     []Format
	Attachments []decorator.Attachment
	// Preview is carried by proposals and offers.
	Preview *PreviewCredential
	// Status is set on acks.
	Status string
	// Description is set on problem reports.
	Description *model.Code

	raw []byte
}

// ThreadID returns the thread of the message, its id when it starts a thread.
func (m *Message) ThreadID() string {
	if m.Thread.ID != "" {
		return m.Thread.ID
	}

	return m.ID
}

// Type returns the @type of the message.
func (m *Message) Type() string {
	return MessageType(m.Version, m.Kind)
}

// FormatIDs returns the format identifiers of the message.
func (m *Message) FormatIDs() []string {
	ids := make([]string, len(m.Formats))
	for i, f := range m.Formats {
		ids[i] = f.Format
	}

	return ids
}

// Attributes returns the preview attributes, nil without a preview.
func (m *Message) Attributes() []format.Attribute {
	if m.Preview == nil {
		return nil
	}

	return m.Preview.Attributes
}

// MarshalJSON encodes the message in the wire format of its version.
func (m *Message) MarshalJSON() ([]byte, error) {
	c, err := codecFor(m.Version, nil)
	if err != nil {
		return nil, err
	}

	return c.encode(m)
}

// Bytes returns the message as received, or its encoding if it was built locally.
func (m *Message) Bytes() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}

	return json.Marshal(m)
}

// AsMap returns the message as a DIDCommMsgMap.
func (m *Message) AsMap() (service.DIDCommMsgMap, error) {
	raw, err := m.Bytes()
	if err != nil {
		return nil, err
	}

	return service.ParseDIDCommMsgMap(raw)
}

// attachment returns the attachment of the first format p supports.
func (m *Message) attachment(p format.Plugin) (*decorator.Attachment, error) {
	for _, f := range m.Formats {
		if !p.SupportsFormat(f.Format) {
			continue
		}

		for i := range m.Attachments {
			if m.Attachments[i].ID == f.AttachID {
				return &m.Attachments[i], nil
			}
		}

		return nil, fmt.Errorf("%w: format %s refers to attachment %q", ErrAttachmentNotFound, f.Format, f.AttachID)
	}

	return nil, nil
}

// attachmentFor is attachment on a message that may be absent.
func attachmentFor(m *Message, p format.Plugin) (*decorator.Attachment, error) {
	if m == nil {
		return nil, nil
	}

	return m.attachment(p)
}

// ParseVersion returns the protocol version and message kind of a raw message.
func ParseVersion(raw []byte) (Version, MessageKind, error) {
	msg, err := service.ParseDIDCommMsgMap(raw)
	if err != nil {
		return "", "", err
	}

	return versionAndKind(msg.Type())
}

func versionAndKind(msgType string) (Version, MessageKind, error) {
	var v Version

	switch {
	case strings.HasPrefix(msgType, SpecV1):
		v = V1
	case strings.HasPrefix(msgType, SpecV2):
		v = V2
	default:
		return "", "", fmt.Errorf("unsupported message type %q", msgType)
	}

	name := strings.TrimPrefix(msgType, v.spec())

	for kind, t := range kindTypes {
		if t == name {
			return v, kind, nil
		}
	}

	return "", "", fmt.Errorf("unsupported message type %q", msgType)
}

var errNoID = errors.New("message has no @id")
