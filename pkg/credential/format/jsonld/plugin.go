/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jsonld implements the aries/ld-proof-vc credential format: JSON-LD credentials
// secured with a detached JWS over their URDNA2015 canonical form.
package jsonld

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

const (
	// DetailFormat is the format identifier of proposal, offer and request attachments.
	DetailFormat = "aries/ld-proof-vc-detail@v1.0"
	// CredentialFormat is the format identifier of issued credential attachments.
	CredentialFormat = "aries/ld-proof-vc@v1.0"
	// RecordType is the type of the records holding stored credentials.
	RecordType = "w3c"

	storeName = "credex_w3c_credentials"
)

var logger = log.New("credex/format/jsonld")

// Detail is the payload of proposal, offer and request attachments.
type Detail struct {
	Credential map[string]interface{} `json:"credential"`
	Options    *DetailOptions         `json:"options"`
}

// DetailOptions are the proof options of a Detail.
type DetailOptions struct {
	ProofPurpose string `json:"proofPurpose"`
	ProofType    string `json:"proofType"`
	Created      string `json:"created,omitempty"`
	Domain       string `json:"domain,omitempty"`
	Challenge    string `json:"challenge,omitempty"`
}

// Plugin is the JSON-LD format plugin.
type Plugin struct {
	credentials *format.CredentialStore
	loader      ld.DocumentLoader
	signingKey  ed25519.PrivateKey
	did         string
	kid         string
}

// Opt configures the plugin.
type Opt func(p *Plugin)

// WithSigningKey sets the issuer key used to sign credentials.
func WithSigningKey(key ed25519.PrivateKey) Opt {
	return func(p *Plugin) {
		p.signingKey = key
	}
}

// WithDocumentLoader sets the JSON-LD document loader used for canonicalization.
func WithDocumentLoader(loader ld.DocumentLoader) Opt {
	return func(p *Plugin) {
		p.loader = loader
	}
}

// New returns the JSON-LD format plugin.
func New(provider storage.Provider, opts ...Opt) (*Plugin, error) {
	credentials, err := format.OpenCredentialStore(provider, storeName)
	if err != nil {
		return nil, err
	}

	p := &Plugin{credentials: credentials}

	for _, opt := range opts {
		opt(p)
	}

	if p.loader == nil {
		p.loader = ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(http.DefaultClient))
	}

	if p.signingKey == nil {
		_, p.signingKey, err = ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}

	p.did, p.kid, err = format.DIDKey(p.signingKey.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}

	logger.Debugf("json-ld format plugin signs as %s", p.did)

	return p, nil
}

// DID returns the issuer DID of this plugin.
func (p *Plugin) DID() string {
	return p.did
}

// Key implements format.Plugin.
func (p *Plugin) Key() format.Key {
	return format.KeyJSONLD
}

// CredentialRecordType implements format.Plugin.
func (p *Plugin) CredentialRecordType() string {
	return RecordType
}

// SupportsFormat implements format.Plugin.
func (p *Plugin) SupportsFormat(formatID string) bool {
	return formatID == DetailFormat || formatID == CredentialFormat
}

// FormatID implements format.Plugin.
func (p *Plugin) FormatID(step format.Step) string {
	if step == format.StepCredential {
		return CredentialFormat
	}

	return DetailFormat
}

// BuildProposal implements format.Plugin.
func (p *Plugin) BuildProposal(_ context.Context, in *format.BuildInput) (*format.BuildOutput, error) {
	detail, err := detailFromOptions(in.Options)
	if err != nil {
		return nil, fmt.Errorf("json-ld proposal: %w", err)
	}

	return p.detailOutput(format.StepProposal, in, detail)
}

// ValidateProposal implements format.Plugin.
func (p *Plugin) ValidateProposal(_ context.Context, in *format.ValidateInput) error {
	_, err := decodeDetail(&in.Attachment)

	return err
}

// BuildOffer implements format.Plugin. Without options the proposed detail is offered as is.
func (p *Plugin) BuildOffer(_ context.Context, in *format.BuildInput) (*format.BuildOutput, error) {
	detail, err := detailFromInputOr(in, in.Proposal)
	if err != nil {
		return nil, fmt.Errorf("json-ld offer: %w", err)
	}

	return p.detailOutput(format.StepOffer, in, detail)
}

// ValidateOffer implements format.Plugin.
func (p *Plugin) ValidateOffer(_ context.Context, in *format.ValidateInput) error {
	_, err := decodeDetail(&in.Attachment)

	return err
}

// BuildRequest implements format.Plugin. Without options the offered detail is requested as is.
func (p *Plugin) BuildRequest(_ context.Context, in *format.BuildInput) (*format.BuildOutput, error) {
	detail, err := detailFromInputOr(in, in.Offer)
	if err != nil {
		return nil, fmt.Errorf("json-ld request: %w", err)
	}

	return p.detailOutput(format.StepRequest, in, detail)
}

// ValidateRequest implements format.Plugin.
func (p *Plugin) ValidateRequest(_ context.Context, in *format.ValidateInput) error {
	_, err := decodeDetail(&in.Attachment)

	return err
}

// BuildCredential implements format.Plugin.
func (p *Plugin) BuildCredential(_ context.Context, in *format.BuildInput) (*format.BuildOutput, error) {
	if in.Request == nil {
		return nil, errors.New("json-ld credential: request attachment is required")
	}

	detail, err := decodeDetail(in.Request)
	if err != nil {
		return nil, err
	}

	vc, err := p.sign(detail.Credential, detail.Options)
	if err != nil {
		return nil, fmt.Errorf("json-ld credential: %w", err)
	}

	att, err := decorator.NewJSONAttachment(in.AttachmentID, vc)
	if err != nil {
		return nil, err
	}

	return &format.BuildOutput{Format: CredentialFormat, Attachment: att}, nil
}

// ValidateCredential implements format.Plugin. The credential is verified, checked against the request and stored.
func (p *Plugin) ValidateCredential(_ context.Context, in *format.ValidateInput) (*format.CredentialBinding, error) {
	var vc map[string]interface{}

	if err := format.AttachmentJSON(&in.Attachment, &vc); err != nil {
		return nil, err
	}

	if err := p.verify(vc); err != nil {
		return nil, fmt.Errorf("json-ld credential: %w", err)
	}

	if in.Request != nil {
		detail, err := decodeDetail(in.Request)
		if err != nil {
			return nil, err
		}

		if err = matchRequest(detail.Credential, vc); err != nil {
			return nil, fmt.Errorf("json-ld credential: %w", err)
		}
	}

	raw, err := in.Attachment.Data.Fetch()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()

	if err = p.credentials.Save(id, in.ExchangeID, raw); err != nil {
		return nil, fmt.Errorf("store json-ld credential: %w", err)
	}

	return &format.CredentialBinding{CredentialRecordType: RecordType, CredentialRecordID: id}, nil
}

// JudgeEquality implements format.Plugin. Details are compared including their options;
// an issued credential is compared without its proof against the detail credential.
func (p *Plugin) JudgeEquality(_ context.Context, a, b *decorator.Attachment) (bool, error) {
	ca, oa, err := content(a)
	if err != nil {
		return false, err
	}

	cb, ob, err := content(b)
	if err != nil {
		return false, err
	}

	if !format.EqualJSON(ca, cb) {
		return false, nil
	}

	if oa != nil && ob != nil {
		return format.EqualJSON(oa, ob), nil
	}

	return true, nil
}

// DeleteStoredCredential implements format.Plugin.
func (p *Plugin) DeleteStoredCredential(_ context.Context, credentialRecordID string) error {
	return p.credentials.Delete(credentialRecordID)
}

func (p *Plugin) detailOutput(step format.Step, in *format.BuildInput, detail *Detail) (*format.BuildOutput, error) {
	att, err := decorator.NewJSONAttachment(in.AttachmentID, detail)
	if err != nil {
		return nil, err
	}

	attrs := in.Attributes
	if len(attrs) == 0 {
		attrs = subjectAttributes(detail.Credential)
	}

	return &format.BuildOutput{Format: p.FormatID(step), Attachment: att, Attributes: attrs}, nil
}

func detailFromOptions(opts format.Options) (*Detail, error) {
	if len(opts) == 0 {
		return nil, errors.New("credential detail is required")
	}

	var detail Detail

	if err := opts.Decode(&detail); err != nil {
		return nil, fmt.Errorf("decode credential detail: %w", err)
	}

	return &detail, validateDetail(&detail)
}

func detailFromInputOr(in *format.BuildInput, fallback *decorator.Attachment) (*Detail, error) {
	if len(in.Options) > 0 || fallback == nil {
		return detailFromOptions(in.Options)
	}

	return decodeDetail(fallback)
}

func decodeDetail(att *decorator.Attachment) (*Detail, error) {
	var detail Detail

	if err := format.AttachmentJSON(att, &detail); err != nil {
		return nil, err
	}

	return &detail, validateDetail(&detail)
}

func validateDetail(d *Detail) error {
	if d.Credential == nil {
		return errors.New("credential detail has no credential")
	}

	for _, field := range []string{"@context", "type", "credentialSubject"} {
		if _, ok := d.Credential[field]; !ok {
			return fmt.Errorf("credential detail is missing %s", field)
		}
	}

	if d.Options == nil {
		return errors.New("credential detail has no options")
	}

	if d.Options.ProofType != proofType {
		return fmt.Errorf("unsupported proof type %q", d.Options.ProofType)
	}

	return nil
}

func content(att *decorator.Attachment) (interface{}, interface{}, error) {
	var doc map[string]interface{}

	if err := format.AttachmentJSON(att, &doc); err != nil {
		return nil, nil, err
	}

	if cred, ok := doc["credential"]; ok {
		return cred, doc["options"], nil
	}

	return withoutProof(doc), nil, nil
}

// subjectAttributes derives a preview from the scalar claims of the credential subject.
func subjectAttributes(cred map[string]interface{}) []format.Attribute {
	subject, ok := cred["credentialSubject"].(map[string]interface{})
	if !ok {
		return nil
	}

	var attrs []format.Attribute

	for name, v := range subject {
		if name == "id" {
			continue
		}

		switch v.(type) {
		case string, float64, bool, int:
			attrs = append(attrs, format.Attribute{Name: name, Value: fmt.Sprint(v)})
		}
	}

	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })

	return attrs
}
