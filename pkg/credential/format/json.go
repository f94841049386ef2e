/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
)

// AttachmentJSON unmarshals the inline payload of att into v.
func AttachmentJSON(att *decorator.Attachment, v interface{}) error {
	if att == nil {
		return fmt.Errorf("attachment is missing")
	}

	raw, err := att.Data.Fetch()
	if err != nil {
		return fmt.Errorf("fetch attachment %s: %w", att.ID, err)
	}

	if err = json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal attachment %s: %w", att.ID, err)
	}

	return nil
}

// EqualJSON compares a and b by their JSON data model.
func EqualJSON(a, b interface{}) bool {
	na, err := normalizeJSON(a)
	if err != nil {
		return false
	}

	nb, err := normalizeJSON(b)
	if err != nil {
		return false
	}

	return reflect.DeepEqual(na, nb)
}

func normalizeJSON(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out interface{}

	return out, json.Unmarshal(raw, &out)
}
