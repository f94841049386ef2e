/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package decorator

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoContent is returned when attachment data carries no inline payload.
var ErrNoContent = errors.New("no contents in this attachment")

// Thread thread data.
type Thread struct {
	ID  string `json:"thid,omitempty"`
	PID string `json:"pthid,omitempty"`
}

// Attachment is intended to provide the possibility to include files, links or even JSON payload to the message.
// To find out more please visit https://github.com/hyperledger/aries-rfcs/tree/master/concepts/0017-attachments
type Attachment struct {
	// ID is a JSON-LD construct that uniquely identifies attached content within the scope of a given message.
	ID string `json:"@id,omitempty"`
	// Description is an optional human-readable description of the content.
	Description string `json:"description,omitempty"`
	// FileName is a hint about the name that might be used if this attachment is persisted as a file.
	FileName string `json:"filename,omitempty"`
	// MimeType describes the MIME type of the attached content. Optional but recommended.
	MimeType string `json:"mime-type,omitempty"`
	// LastModTime is a hint about when the content in this attachment was last modified.
	LastModTime *time.Time `json:"lastmod_time,omitempty"`
	// ByteCount is an optional, and mostly relevant when content is included by reference instead of by value.
	ByteCount int64 `json:"byte_count,omitempty"`
	// Data is a JSON object that gives access to the actual content of the attachment.
	Data AttachmentData `json:"data,omitempty"`
}

// AttachmentData contains attachment payload.
// JSON is kept as raw bytes so that a received payload is stored exactly as it arrived.
type AttachmentData struct {
	// Sha256 is a hash of the content. Optional. Used as an integrity check if content is inlined.
	Sha256 string `json:"sha256,omitempty"`
	// Links is a list of zero or more locations at which the content may be fetched.
	Links []string `json:"links,omitempty"`
	// Base64 encoded data, when representing arbitrary content inline instead of via links. Optional.
	Base64 string `json:"base64,omitempty"`
	// JSON is a directly embedded JSON data, when representing content inline instead of via links,
	// and when the content is natively conveyable as JSON. Optional.
	JSON json.RawMessage `json:"json,omitempty"`
}

// Fetch returns the inline payload of the attachment. Linked content is not fetched.
func (d *AttachmentData) Fetch() ([]byte, error) {
	var (
		contents []byte
		err      error
	)

	switch {
	case len(d.JSON) > 0:
		contents = d.JSON
	case d.Base64 != "":
		contents, err = base64.StdEncoding.DecodeString(d.Base64)
		if err != nil {
			contents, err = base64.RawURLEncoding.DecodeString(d.Base64)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to base64 decode attachment contents: %w", err)
		}
	case len(d.Links) > 0:
		return nil, fmt.Errorf("linked attachment content is not supported: %w", ErrNoContent)
	default:
		return nil, ErrNoContent
	}

	if d.Sha256 != "" {
		sum := sha256.Sum256(contents)
		if hex.EncodeToString(sum[:]) != d.Sha256 {
			return nil, errors.New("attachment sha256 does not match its contents")
		}
	}

	return contents, nil
}

// Empty reports whether the attachment data carries no payload at all.
func (d *AttachmentData) Empty() bool {
	return len(d.JSON) == 0 && d.Base64 == "" && len(d.Links) == 0
}

// NewJSONAttachment builds an attachment with the JSON form of v inlined.
func NewJSONAttachment(id string, v interface{}) (Attachment, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Attachment{}, fmt.Errorf("marshal attachment payload: %w", err)
	}

	return Attachment{
		ID:       id,
		MimeType: "application/json",
		Data:     AttachmentData{JSON: raw},
	}, nil
}

// NewBase64Attachment builds an attachment with data inlined as base64.
func NewBase64Attachment(id, mimeType string, data []byte) Attachment {
	return Attachment{
		ID:       id,
		MimeType: mimeType,
		Data:     AttachmentData{Base64: base64.StdEncoding.EncodeToString(data)},
	}
}
