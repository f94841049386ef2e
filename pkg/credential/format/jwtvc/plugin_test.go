/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwtvc

import (
	"context"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

func detail(name string) format.Options {
	return format.Options{
		"credential": map[string]interface{}{
			"@context": []interface{}{"https://www.w3.org/2018/credentials/v1"},
			"type":     []interface{}{"VerifiableCredential"},
			"credentialSubject": map[string]interface{}{
				"id":   "did:example:holder",
				"name": name,
			},
		},
	}
}

func TestPlugin_Issuance(t *testing.T) {
	ctx := context.Background()

	issuer, err := New(mem.NewProvider())
	require.NoError(t, err)

	holder, err := New(mem.NewProvider())
	require.NoError(t, err)

	require.Equal(t, format.KeyJWTVC, holder.Key())
	require.True(t, holder.SupportsFormat(CredentialFormat))
	require.False(t, holder.SupportsFormat("aries/ld-proof-vc@v1.0"))

	offer, err := issuer.BuildOffer(ctx, &format.BuildInput{
		AttachmentID: "o1",
		Options:      detail("Alice"),
		Attributes:   []format.Attribute{{Name: "name", Value: "Alice"}},
	})
	require.NoError(t, err)
	require.Equal(t, DetailFormat, offer.Format)
	require.Equal(t, []format.Attribute{{Name: "name", Value: "Alice"}}, offer.Attributes)
	require.NoError(t, holder.ValidateOffer(ctx, &format.ValidateInput{Attachment: offer.Attachment}))

	request, err := holder.BuildRequest(ctx, &format.BuildInput{AttachmentID: "r1", Offer: &offer.Attachment})
	require.NoError(t, err)
	require.NoError(t, issuer.ValidateRequest(ctx, &format.ValidateInput{Attachment: request.Attachment}))

	cred, err := issuer.BuildCredential(ctx, &format.BuildInput{AttachmentID: "c1", Request: &request.Attachment})
	require.NoError(t, err)
	require.Equal(t, jwtMime, cred.Attachment.MimeType)

	same, err := holder.JudgeEquality(ctx, &request.Attachment, &cred.Attachment)
	require.NoError(t, err)
	require.True(t, same)

	binding, err := holder.ValidateCredential(ctx, &format.ValidateInput{
		ExchangeID: "ex1",
		Attachment: cred.Attachment,
		Request:    &request.Attachment,
	})
	require.NoError(t, err)
	require.Equal(t, RecordType, binding.CredentialRecordType)

	require.NoError(t, holder.DeleteStoredCredential(ctx, binding.CredentialRecordID))
}

func TestPlugin_Rejects(t *testing.T) {
	ctx := context.Background()

	issuer, err := New(mem.NewProvider())
	require.NoError(t, err)

	t.Run("no detail", func(t *testing.T) {
		_, err = issuer.BuildOffer(ctx, &format.BuildInput{})
		require.EqualError(t, err, "jwt-vc offer: credential detail is required")
	})

	t.Run("detail without subject", func(t *testing.T) {
		_, err = issuer.BuildProposal(ctx, &format.BuildInput{Options: format.Options{
			"credential": map[string]interface{}{"type": []interface{}{"VerifiableCredential"}},
		}})
		require.Contains(t, err.Error(), "missing credentialSubject")
	})

	t.Run("credential does not match request", func(t *testing.T) {
		alice, e := issuer.BuildRequest(ctx, &format.BuildInput{Options: detail("Alice")})
		require.NoError(t, e)

		bob, e := issuer.BuildRequest(ctx, &format.BuildInput{Options: detail("Bob")})
		require.NoError(t, e)

		cred, e := issuer.BuildCredential(ctx, &format.BuildInput{Request: &bob.Attachment})
		require.NoError(t, e)

		_, e = issuer.ValidateCredential(ctx, &format.ValidateInput{Attachment: cred.Attachment, Request: &alice.Attachment})
		require.EqualError(t, e, "jwt-vc credential: issued credential does not match the request")
	})

	t.Run("expired credential", func(t *testing.T) {
		opts := detail("Alice")
		opts["expiresIn"] = 60

		request, e := issuer.BuildRequest(ctx, &format.BuildInput{Options: opts})
		require.NoError(t, e)

		issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
		defer func() { issuer.now = time.Now }()

		cred, e := issuer.BuildCredential(ctx, &format.BuildInput{Request: &request.Attachment})
		require.NoError(t, e)

		issuer.now = time.Now

		_, e = issuer.ValidateCredential(ctx, &format.ValidateInput{Attachment: cred.Attachment})
		require.Contains(t, e.Error(), "validate jwt claims")
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, e := issuer.ValidateCredential(ctx, &format.ValidateInput{
			Attachment: decorator.NewBase64Attachment("c1", jwtMime, []byte("not-a-jwt")),
		})
		require.Contains(t, e.Error(), "parse jwt")
	})
}
