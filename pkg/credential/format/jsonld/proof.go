/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jsonld

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/go-jose/go-jose/v3"
	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
)

const (
	proofType            = "JsonWebSignature2020"
	defaultProofPurpose  = "assertionMethod"
	canonicalFormat      = "application/n-quads"
	canonicalAlgorithm   = "URDNA2015"
	jsonldProof          = "proof"
	jsonldJWS            = "jws"
	jsonldVerificationID = "verificationMethod"
)

// matchPaths select the parts of an issued credential that must equal the requested credential.
var matchPaths = []string{ //nolint:gochecknoglobals
	`$["@context"]`,
	"$.type",
	"$.issuer",
	"$.credentialSubject",
}

func (p *Plugin) sign(cred map[string]interface{}, opts *DetailOptions) (map[string]interface{}, error) {
	if _, ok := cred["issuer"]; !ok {
		return nil, errors.New("credential issuer is required")
	}

	payload, err := p.canonicalize(withoutProof(cred))
	if err != nil {
		return nil, err
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: p.signingKey},
		(&jose.SignerOptions{}).WithHeader("kid", p.kid))
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign credential: %w", err)
	}

	detached, err := jws.DetachedCompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("serialize jws: %w", err)
	}

	purpose := opts.ProofPurpose
	if purpose == "" {
		purpose = defaultProofPurpose
	}

	created := opts.Created
	if created == "" {
		created = time.Now().UTC().Format(time.RFC3339)
	}

	vc := withoutProof(cred)
	vc[jsonldProof] = map[string]interface{}{
		"type":               proofType,
		"created":            created,
		"proofPurpose":       purpose,
		jsonldVerificationID: p.kid,
		jsonldJWS:            detached,
	}

	return vc, nil
}

func (p *Plugin) verify(vc map[string]interface{}) error {
	proof, ok := vc[jsonldProof].(map[string]interface{})
	if !ok {
		return errors.New("credential has no proof")
	}

	vm, _ := proof[jsonldVerificationID].(string) //nolint:errcheck
	detached, _ := proof[jsonldJWS].(string)      //nolint:errcheck

	if vm == "" || detached == "" {
		return errors.New("credential proof is incomplete")
	}

	pub, err := format.PublicKeyFromDIDKey(vm)
	if err != nil {
		return fmt.Errorf("resolve verification method: %w", err)
	}

	payload, err := p.canonicalize(withoutProof(vc))
	if err != nil {
		return err
	}

	jws, err := jose.ParseDetached(detached, payload)
	if err != nil {
		return fmt.Errorf("parse jws: %w", err)
	}

	if _, err = jws.Verify(pub); err != nil {
		return fmt.Errorf("verify credential proof: %w", err)
	}

	return nil
}

func (p *Plugin) canonicalize(doc map[string]interface{}) ([]byte, error) {
	proc := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.ProcessingMode = ld.JsonLd_1_1
	options.Algorithm = canonicalAlgorithm
	options.Format = canonicalFormat
	options.ProduceGeneralizedRdf = true
	options.DocumentLoader = p.loader

	view, err := proc.Normalize(doc, options)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize JSON-LD document: %w", err)
	}

	result, ok := view.(string)
	if !ok || result == "" {
		return nil, errors.New("normalized JSON-LD document is empty")
	}

	return []byte(result), nil
}

// matchRequest checks that the issued credential carries what was requested.
func matchRequest(requested, issued map[string]interface{}) error {
	builder := gval.Full(jsonpath.PlaceholderExtension())

	for _, path := range matchPaths {
		eval, err := builder.NewEvaluable(path)
		if err != nil {
			return fmt.Errorf("build path %s: %w", path, err)
		}

		want, err := eval(context.Background(), requested)
		if err != nil {
			return fmt.Errorf("requested credential %s: %w", path, err)
		}

		got, err := eval(context.Background(), issued)
		if err != nil {
			return fmt.Errorf("issued credential %s: %w", path, err)
		}

		if !format.EqualJSON(want, got) {
			return fmt.Errorf("issued credential %s does not match the request", path)
		}
	}

	return nil
}

func withoutProof(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))

	for k, v := range doc {
		if k != jsonldProof {
			out[k] = v
		}
	}

	return out
}
