/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefix(t *testing.T) {
	require.Equal(t, "command=[issuecredential] action=[AcceptOffer]", prefix("issuecredential", "AcceptOffer", nil))
	require.Equal(t, "command=[issuecredential] action=[AcceptOffer] piid=[rec-1] state=[done]",
		prefix("issuecredential", "AcceptOffer", []string{
			CreateKeyValueString("piid", "rec-1"),
			CreateKeyValueString("state", "done"),
		}))
}
