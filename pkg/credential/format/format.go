/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package format defines the contract between the credential exchange protocol and the credential
// encodings (format plugins) that build and validate the attachments carried by its messages.
package format

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

// Key identifies a format plugin.
type Key string

const (
	// KeyJSONLD is the key of the JSON-LD linked data proof plugin.
	KeyJSONLD Key = "jsonld"
	// KeyJWTVC is the key of the JWT verifiable credential plugin.
	KeyJWTVC Key = "jwtvc"
)

// Valid reports whether k names a supported encoding.
func (k Key) Valid() bool {
	switch k {
	case KeyJSONLD, KeyJWTVC:
		return true
	default:
		return false
	}
}

// ParseKey converts s into a Key.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}

	return k, nil
}

// Step is a protocol message carrying format attachments.
type Step string

const (
	// StepProposal propose-credential.
	StepProposal Step = "proposal"
	// StepOffer offer-credential.
	StepOffer Step = "offer"
	// StepRequest request-credential.
	StepRequest Step = "request"
	// StepCredential issue-credential.
	StepCredential Step = "credential"
)

// Attribute is one credential preview attribute.
type Attribute struct {
	Name     string `json:"name"`
	MimeType string `json:"mime-type,omitempty"`
	Value    string `json:"value"`
}

// CredentialBinding points at a credential stored by a plugin.
type CredentialBinding struct {
	CredentialRecordType string `json:"credentialRecordType"`
	CredentialRecordID   string `json:"credentialRecordId"`
}

// Options are plugin specific parameters supplied by the caller of a protocol operation.
type Options map[string]interface{}

// Decode decodes the options into v using the json tags of v.
func (o Options) Decode(v interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           v,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(map[string]interface{}(o))
}

// BuildInput is passed to the plugin builders.
type BuildInput struct {
	ExchangeID   string
	ThreadID     string
	AttachmentID string
	Options      Options
	// Attributes is the preview requested by the caller, if any.
	Attributes []Attribute
	// Counterpart attachments of this plugin already exchanged on the thread.
	Proposal *decorator.Attachment
	Offer    *decorator.Attachment
	Request  *decorator.Attachment
}

// BuildOutput is the result of a plugin builder.
type BuildOutput struct {
	Format     string
	Attachment decorator.Attachment
	// Attributes is the preview declared by the plugin, empty if it declares none.
	Attributes []Attribute
}

// ValidateInput is passed to the plugin validators.
type ValidateInput struct {
	ExchangeID string
	Attachment decorator.Attachment
	Proposal   *decorator.Attachment
	Offer      *decorator.Attachment
	Request    *decorator.Attachment
}

// Plugin encapsulates one credential encoding.
// Plugins are stateless per call and must be safe for concurrent use.
type Plugin interface {
	Key() Key
	// CredentialRecordType is the type of the records created for stored credentials.
	CredentialRecordType() string
	SupportsFormat(formatID string) bool
	// FormatID returns the format identifier this plugin uses for step.
	FormatID(step Step) string

	BuildProposal(ctx context.Context, in *BuildInput) (*BuildOutput, error)
	ValidateProposal(ctx context.Context, in *ValidateInput) error
	BuildOffer(ctx context.Context, in *BuildInput) (*BuildOutput, error)
	ValidateOffer(ctx context.Context, in *ValidateInput) error
	BuildRequest(ctx context.Context, in *BuildInput) (*BuildOutput, error)
	ValidateRequest(ctx context.Context, in *ValidateInput) error
	BuildCredential(ctx context.Context, in *BuildInput) (*BuildOutput, error)
	// ValidateCredential verifies and stores the issued credential.
	ValidateCredential(ctx context.Context, in *ValidateInput) (*CredentialBinding, error)

	// JudgeEquality reports whether the content of b is acceptable given a.
	JudgeEquality(ctx context.Context, a, b *decorator.Attachment) (bool, error)
	DeleteStoredCredential(ctx context.Context, credentialRecordID string) error
}
