/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
)

const didKeyPrefix = "did:key:"

// ed25519-pub multicodec, varint encoded.
var ed25519Codec = []byte{0xed, 0x01}

// DIDKey returns the did:key identifier of pub and its verification method id.
func DIDKey(pub ed25519.PublicKey) (string, string, error) {
	enc, err := multibase.Encode(multibase.Base58BTC, append(append([]byte{}, ed25519Codec...), pub...))
	if err != nil {
		return "", "", fmt.Errorf("multibase encode public key: %w", err)
	}

	did := didKeyPrefix + enc

	return did, did + "#" + enc, nil
}

// PublicKeyFromDIDKey resolves an Ed25519 public key from a did:key identifier or verification method id.
func PublicKeyFromDIDKey(id string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(id, didKeyPrefix) {
		return nil, fmt.Errorf("not a did:key: %q", id)
	}

	enc := strings.TrimPrefix(id, didKeyPrefix)
	if i := strings.Index(enc, "#"); i >= 0 {
		enc = enc[:i]
	}

	_, raw, err := multibase.Decode(enc)
	if err != nil {
		return nil, fmt.Errorf("multibase decode %q: %w", id, err)
	}

	if !bytes.HasPrefix(raw, ed25519Codec) || len(raw) != len(ed25519Codec)+ed25519.PublicKeySize {
		return nil, fmt.Errorf("did:key %q is not an ed25519 key", id)
	}

	return ed25519.PublicKey(raw[len(ed25519Codec):]), nil
}
