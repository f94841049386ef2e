/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwtvc implements the aries/jwt-vc credential format: credentials issued as EdDSA signed JWTs
// carrying the credential in the vc claim.
package jwtvc

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

const (
	// DetailFormat is the format identifier of proposal, offer and request attachments.
	DetailFormat = "aries/jwt-vc-detail@v1.0"
	// CredentialFormat is the format identifier of issued credential attachments.
	CredentialFormat = "aries/jwt-vc@v1.0"
	// RecordType is the type of the records holding stored credentials.
	RecordType = "jwt-vc"

	storeName = "credex_jwt_credentials"
	jwtMime   = "application/jwt"
)

var logger = log.New("credex/format/jwtvc")

// Detail is the payload of proposal, offer and request attachments.
type Detail struct {
	Credential map[string]interface{} `json:"credential"`
	// ExpiresIn is the validity of the issued JWT in seconds, zero for no expiry.
	ExpiresIn int64 `json:"expiresIn,omitempty"`
}

type vcClaims struct {
	VC map[string]interface{} `json:"vc"`
}

// Plugin is the JWT VC format plugin.
type Plugin struct {
	credentials *format.CredentialStore
	signingKey  ed25519.PrivateKey
	did         string
	kid         string
	now         func() time.Time
}

// Opt configures the plugin.
type Opt func(p *Plugin)

// WithSigningKey sets the issuer key used to sign credentials.
func WithSigningKey(key ed25519.PrivateKey) Opt {
	return func(p *Plugin) {
		p.signingKey = key
	}
}

// New returns the JWT VC format plugin.
func New(provider storage.Provider, opts ...Opt) (*Plugin, error) {
	credentials, err := format.OpenCredentialStore(provider, storeName)
	if err != nil {
		return nil, err
	}

	p := &Plugin{credentials: credentials, now: time.Now}

	for _, opt := range opts {
		opt(p)
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

	logger.Debugf("jwt-vc format plugin signs as %s", p.did)

	return p, nil
}

// DID returns the issuer DID of this plugin.
func (p *Plugin) DID() string {
	return p.did
}

// Key implements format.Plugin.
func (p *Plugin) Key() format.Key {
	return format.KeyJWTVC
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
	return p.detailOutput(format.StepProposal, in, nil)
}

// ValidateProposal implements format.Plugin.
func (p *Plugin) ValidateProposal(_ context.Context, in *format.ValidateInput) error {
	_, err := decodeDetail(&in.Attachment)

	return err
}

// BuildOffer implements format.Plugin.
func (p *Plugin) BuildOffer(_ context.Context, in *format.BuildInput) (*format.BuildOutput, error) {
	return p.detailOutput(format.StepOffer, in, in.Proposal)
}

// ValidateOffer implements format.Plugin.
func (p *Plugin) ValidateOffer(_ context.Context, in *format.ValidateInput) error {
	_, err := decodeDetail(&in.Attachment)

	return err
}

// BuildRequest implements format.Plugin.
func (p *Plugin) BuildRequest(_ context.Context, in *format.BuildInput) (*format.BuildOutput, error) {
	return p.detailOutput(format.StepRequest, in, in.Offer)
}

// ValidateRequest implements format.Plugin.
func (p *Plugin) ValidateRequest(_ context.Context, in *format.ValidateInput) error {
	_, err := decodeDetail(&in.Attachment)

	return err
}

// BuildCredential implements format.Plugin.
func (p *Plugin) BuildCredential(_ context.Context, in *format.BuildInput) (*format.BuildOutput, error) {
	if in.Request == nil {
		return nil, errors.New("jwt-vc credential: request attachment is required")
	}

	detail, err := decodeDetail(in.Request)
	if err != nil {
		return nil, err
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: p.signingKey},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", p.kid))
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	now := p.now()
	claims := jwt.Claims{
		Issuer:    p.did,
		Subject:   subjectID(detail.Credential),
		ID:        "urn:uuid:" + uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	if detail.ExpiresIn > 0 {
		claims.Expiry = jwt.NewNumericDate(now.Add(time.Duration(detail.ExpiresIn) * time.Second))
	}

	token, err := jwt.Signed(signer).Claims(claims).Claims(vcClaims{VC: detail.Credential}).CompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("jwt-vc credential: %w", err)
	}

	return &format.BuildOutput{
		Format:     CredentialFormat,
		Attachment: decorator.NewBase64Attachment(in.AttachmentID, jwtMime, []byte(token)),
	}, nil
}

// ValidateCredential implements format.Plugin. The JWT is verified against the did:key in its kid header,
// its vc claim compared with the request and the token stored.
func (p *Plugin) ValidateCredential(_ context.Context, in *format.ValidateInput) (*format.CredentialBinding, error) {
	raw, err := in.Attachment.Data.Fetch()
	if err != nil {
		return nil, err
	}

	vc, err := p.verify(string(raw))
	if err != nil {
		return nil, fmt.Errorf("jwt-vc credential: %w", err)
	}

	if in.Request != nil {
		detail, e := decodeDetail(in.Request)
		if e != nil {
			return nil, e
		}

		if !format.EqualJSON(detail.Credential, vc) {
			return nil, errors.New("jwt-vc credential: issued credential does not match the request")
		}
	}

	id := uuid.New().String()

	if err = p.credentials.Save(id, in.ExchangeID, raw); err != nil {
		return nil, fmt.Errorf("store jwt-vc credential: %w", err)
	}

	return &format.CredentialBinding{CredentialRecordType: RecordType, CredentialRecordID: id}, nil
}

// JudgeEquality implements format.Plugin.
func (p *Plugin) JudgeEquality(_ context.Context, a, b *decorator.Attachment) (bool, error) {
	ca, err := content(a)
	if err != nil {
		return false, err
	}

	cb, err := content(b)
	if err != nil {
		return false, err
	}

	return format.EqualJSON(ca, cb), nil
}

// DeleteStoredCredential implements format.Plugin.
func (p *Plugin) DeleteStoredCredential(_ context.Context, credentialRecordID string) error {
	return p.credentials.Delete(credentialRecordID)
}

func (p *Plugin) detailOutput(step format.Step, in *format.BuildInput,
	fallback *decorator.Attachment) (*format.BuildOutput, error) {
	var (
		detail *Detail
		err    error
	)

	switch {
	case len(in.Options) > 0:
		detail = &Detail{}

		if err = in.Options.Decode(detail); err == nil {
			err = validateDetail(detail)
		}
	case fallback != nil:
		detail, err = decodeDetail(fallback)
	default:
		err = errors.New("credential detail is required")
	}

	if err != nil {
		return nil, fmt.Errorf("jwt-vc %s: %w", step, err)
	}

	att, err := decorator.NewJSONAttachment(in.AttachmentID, detail)
	if err != nil {
		return nil, err
	}

	return &format.BuildOutput{Format: DetailFormat, Attachment: att, Attributes: in.Attributes}, nil
}

func (p *Plugin) verify(token string) (map[string]interface{}, error) {
	tok, err := jwt.ParseSigned(token)
	if err != nil {
		return nil, fmt.Errorf("parse jwt: %w", err)
	}

	if len(tok.Headers) != 1 {
		return nil, errors.New("jwt must carry exactly one signature")
	}

	kid := tok.Headers[0].KeyID

	pub, err := format.PublicKeyFromDIDKey(kid)
	if err != nil {
		return nil, err
	}

	var (
		claims jwt.Claims
		vc     vcClaims
	)

	if err = tok.Claims(pub, &claims, &vc); err != nil {
		return nil, fmt.Errorf("verify jwt: %w", err)
	}

	if !strings.HasPrefix(kid, claims.Issuer+"#") {
		return nil, fmt.Errorf("jwt issuer %q is not the signer", claims.Issuer)
	}

	if err = claims.ValidateWithLeeway(jwt.Expected{Time: p.now()}, time.Minute); err != nil {
		return nil, fmt.Errorf("validate jwt claims: %w", err)
	}

	if vc.VC == nil {
		return nil, errors.New("jwt has no vc claim")
	}

	return vc.VC, nil
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

	for _, field := range []string{"type", "credentialSubject"} {
		if _, ok := d.Credential[field]; !ok {
			return fmt.Errorf("credential detail is missing %s", field)
		}
	}

	return nil
}

// content returns the credential carried by a detail or an issued JWT.
func content(att *decorator.Attachment) (interface{}, error) {
	if att.MimeType == jwtMime {
		raw, err := att.Data.Fetch()
		if err != nil {
			return nil, err
		}

		tok, err := jwt.ParseSigned(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse jwt: %w", err)
		}

		var vc vcClaims

		if err = tok.UnsafeClaimsWithoutVerification(&vc); err != nil {
			return nil, err
		}

		return vc.VC, nil
	}

	detail, err := decodeDetail(att)
	if err != nil {
		return nil, err
	}

	return detail.Credential, nil
}

func subjectID(cred map[string]interface{}) string {
	subject, ok := cred["credentialSubject"].(map[string]interface{})
	if !ok {
		return ""
	}

	id, _ := subject["id"].(string) //nolint:errcheck

	return id
}
