/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_Subscriptions(t *testing.T) {
	m := Message{}
	require.Empty(t, m.MsgEvents())

	require.ErrorIs(t, m.RegisterMsgEvent(nil), ErrNilChannel)

	first := make(chan StateMsg, 2)
	second := make(chan StateMsg, 2)

	require.NoError(t, m.RegisterMsgEvent(first))
	require.NoError(t, m.RegisterMsgEvent(second))
	require.NoError(t, m.RegisterMsgEvent(first))
	require.Len(t, m.MsgEvents(), 3)

	t.Run("returned slice is a copy", func(t *testing.T) {
		events := m.MsgEvents()
		events[0] = nil

		require.NotNil(t, m.MsgEvents()[0])
	})

	t.Run("unregister removes every subscription of a channel", func(t *testing.T) {
		require.NoError(t, m.UnregisterMsgEvent(first))
		require.Len(t, m.MsgEvents(), 1)

		require.NoError(t, m.UnregisterMsgEvent(first))
		require.Len(t, m.MsgEvents(), 1)
	})
}

func TestStateMsgType_String(t *testing.T) {
	require.Equal(t, "pre_state", PreState.String())
	require.Equal(t, "post_state", PostState.String())
}
