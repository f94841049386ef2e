/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

type stubPlugin struct {
	key        Key
	recordType string
	prefix     string
}

func (s *stubPlugin) Key() Key                     { return s.key }
func (s *stubPlugin) CredentialRecordType() string { return s.recordType }
func (s *stubPlugin) SupportsFormat(id string) bool {
	return strings.HasPrefix(id, s.prefix)
}
func (s *stubPlugin) FormatID(step Step) string { return s.prefix + string(step) }
func (s *stubPlugin) BuildProposal(context.Context, *BuildInput) (*BuildOutput, error) {
	return nil, nil
}
func (s *stubPlugin) ValidateProposal(context.Context, *ValidateInput) error { return nil }
func (s *stubPlugin) BuildOffer(context.Context, *BuildInput) (*BuildOutput, error) {
	return nil, nil
}
func (s *stubPlugin) ValidateOffer(context.Context, *ValidateInput) error { return nil }
func (s *stubPlugin) BuildRequest(context.Context, *BuildInput) (*BuildOutput, error) {
	return nil, nil
}
func (s *stubPlugin) ValidateRequest(context.Context, *ValidateInput) error { return nil }
func (s *stubPlugin) BuildCredential(context.Context, *BuildInput) (*BuildOutput, error) {
	return nil, nil
}
func (s *stubPlugin) ValidateCredential(context.Context, *ValidateInput) (*CredentialBinding, error) {
	return nil, nil
}
func (s *stubPlugin) JudgeEquality(context.Context, *decorator.Attachment, *decorator.Attachment) (bool, error) {
	return true, nil
}
func (s *stubPlugin) DeleteStoredCredential(context.Context, string) error { return nil }

func TestRegistry(t *testing.T) {
	ld := &stubPlugin{key: KeyJSONLD, recordType: "w3c", prefix: "aries/ld-proof-vc"}
	jwt := &stubPlugin{key: KeyJWTVC, recordType: "jwt", prefix: "aries/jwt-vc"}

	t.Run("register and lookup", func(t *testing.T) {
		r, err := NewRegistry(ld, jwt)
		require.NoError(t, err)
		require.Equal(t, []Key{KeyJSONLD, KeyJWTVC}, r.Keys())

		p, err := r.Get(KeyJWTVC)
		require.NoError(t, err)
		require.Equal(t, jwt, p)

		p, err = r.ByRecordType("w3c")
		require.NoError(t, err)
		require.Equal(t, ld, p)

		_, err = r.ByRecordType("indy")
		require.ErrorIs(t, err, ErrUnknownKey)
	})

	t.Run("duplicate key", func(t *testing.T) {
		_, err := NewRegistry(ld, ld)
		require.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("closed key set", func(t *testing.T) {
		_, err := NewRegistry(&stubPlugin{key: "indy"})
		require.ErrorIs(t, err, ErrUnknownKey)

		_, err = ParseKey("indy")
		require.ErrorIs(t, err, ErrUnknownKey)

		k, err := ParseKey("jsonld")
		require.NoError(t, err)
		require.Equal(t, KeyJSONLD, k)
	})

	t.Run("select keeps registration order", func(t *testing.T) {
		r, err := NewRegistry(ld, jwt)
		require.NoError(t, err)

		plugins, err := r.Select([]Key{KeyJWTVC, KeyJSONLD, KeyJWTVC})
		require.NoError(t, err)
		require.Equal(t, []Plugin{ld, jwt}, plugins)

		_, err = r.Select([]Key{KeyJSONLD, "bbs"})
		require.ErrorIs(t, err, ErrUnknownKey)
	})

	t.Run("for formats skips unknown identifiers", func(t *testing.T) {
		r, err := NewRegistry(ld, jwt)
		require.NoError(t, err)

		plugins := r.ForFormats([]string{"hlindy/cred@v2.0", "aries/jwt-vc@v1.0"})
		require.Equal(t, []Plugin{jwt}, plugins)
		require.Empty(t, r.ForFormats([]string{"anoncreds/credential@v1.0"}))
	})
}

func TestOptions_Decode(t *testing.T) {
	var target struct {
		ProofType string   `json:"proofType"`
		Types     []string `json:"types"`
	}

	err := Options{"proofType": "Ed25519Signature2018", "types": []interface{}{"VerifiableCredential"}}.Decode(&target)
	require.NoError(t, err)
	require.Equal(t, "Ed25519Signature2018", target.ProofType)
	require.Equal(t, []string{"VerifiableCredential"}, target.Types)
}

func TestDIDKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	did, kid, err := DIDKey(pub)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(did, "did:key:z"))
	require.True(t, strings.HasPrefix(kid, did+"#"))

	resolved, err := PublicKeyFromDIDKey(kid)
	require.NoError(t, err)
	require.Equal(t, pub, resolved)

	_, err = PublicKeyFromDIDKey("did:example:123")
	require.Error(t, err)

	_, err = PublicKeyFromDIDKey("did:key:zzz0")
	require.Error(t, err)
}

func TestEqualJSON(t *testing.T) {
	require.True(t, EqualJSON(map[string]interface{}{"a": 1, "b": []string{"x"}},
		map[string]interface{}{"b": []interface{}{"x"}, "a": 1.0}))
	require.False(t, EqualJSON(map[string]interface{}{"a": 1}, map[string]interface{}{"a": 2}))
}

func TestCredentialStore(t *testing.T) {
	s, err := OpenCredentialStore(mem.NewProvider(), "credentials")
	require.NoError(t, err)

	require.NoError(t, s.Save("c1", "ex1", []byte(`{"id":"c1"}`)))

	raw, err := s.Get("c1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"c1"}`, string(raw))

	require.NoError(t, s.Delete("c1"))
	require.NoError(t, s.Delete("c1"))

	_, err = s.Get("c1")
	require.Error(t, err)
}
