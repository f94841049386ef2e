/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	jsonID             = "@id"
	jsonType           = "@type"
	jsonThread         = "~thread"
	jsonThreadID       = "thid"
	jsonParentThreadID = "pthid"
)

// ErrThreadIDNotFound is returned for a message that has neither an @id nor a ~thread.thid.
var ErrThreadIDNotFound = errors.New("threadID not found")

// DIDCommMsgMap is a DIDComm message in its generic JSON form.
type DIDCommMsgMap map[string]interface{}

// ParseDIDCommMsgMap decodes a JSON message.
func ParseDIDCommMsgMap(payload []byte) (DIDCommMsgMap, error) {
	var msg DIDCommMsgMap

	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("invalid payload data format: %w", err)
	}

	return msg, nil
}

// ID returns @id, or "" when absent.
func (m DIDCommMsgMap) ID() string {
	return m.str(jsonID)
}

// Type returns @type, for example https://didcomm.org/issue-credential/2.0/offer-credential.
func (m DIDCommMsgMap) Type() string {
	return m.str(jsonType)
}

// ThreadID returns ~thread.thid. A message without it starts its own thread and @id is returned.
// A message with a thid but no @id is invalid.
func (m DIDCommMsgMap) ThreadID() (string, error) {
	thid, id := m.threadValue(jsonThreadID), m.ID()

	switch {
	case thid != "" && id != "":
		return thid, nil
	case thid == "" && id != "":
		return id, nil
	default:
		return "", ErrThreadIDNotFound
	}
}

// ParentThreadID returns ~thread.pthid, or "" when absent.
func (m DIDCommMsgMap) ParentThreadID() string {
	return m.threadValue(jsonParentThreadID)
}

func (m DIDCommMsgMap) str(key string) string {
	s, _ := m[key].(string) //nolint:errcheck

	return s
}

func (m DIDCommMsgMap) threadValue(key string) string {
	thread, ok := m[jsonThread].(map[string]interface{})
	if !ok {
		return ""
	}

	s, _ := thread[key].(string) //nolint:errcheck

	return s
}

// Clone returns a shallow copy of m.
func (m DIDCommMsgMap) Clone() DIDCommMsgMap {
	if m == nil {
		return nil
	}

	msg := make(DIDCommMsgMap, len(m))
	for k, v := range m {
		msg[k] = v
	}

	return msg
}

// Decode copies the message into the struct v using its json tags. RFC 3339 strings decode into
// time.Time and base64 strings into []byte.
func (m DIDCommMsgMap) Decode(v interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decodeHook,
		WeaklyTypedInput: true,
		Result:           v,
		TagName:          "json",
	})
	if err != nil {
		return err
	}

	return decoder.Decode(map[string]interface{}(m))
}

func decodeHook(from, to reflect.Type, v interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return v, nil
	}

	switch {
	case to == reflect.TypeOf(time.Time{}):
		return time.Parse(time.RFC3339, v.(string))
	case to.Kind() == reflect.Slice && to.Elem().Kind() == reflect.Uint8:
		return base64.StdEncoding.DecodeString(v.(string))
	default:
		return v, nil
	}
}
