/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zaplog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProvider(t *testing.T) {
	t.Run("module name and level", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		p, err := New(WithCore(core))
		require.NoError(t, err)

		l := p.GetLogger("credex/client")
		l.Debugf("debug %d", 1)
		l.Warnf("warn %s", "two")
		l.Errorf("error")

		entries := logs.All()
		require.Len(t, entries, 3)
		require.Equal(t, "credex/client", entries[0].LoggerName)
		require.Equal(t, "debug 1", entries[0].Message)
		require.Equal(t, zapcore.WarnLevel, entries[1].Level)
		require.Equal(t, "warn two", entries[1].Message)
		require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	})

	t.Run("json encoding", func(t *testing.T) {
		var buf bytes.Buffer

		p, err := New(WithEncoding(EncodingJSON), WithOutput(&buf))
		require.NoError(t, err)

		p.GetLogger("engine").Infof("state %s", "done")
		require.NoError(t, p.Sync())

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "engine", line["logger"])
		require.Equal(t, "state done", line["msg"])
		require.Equal(t, "info", line["level"])
	})

	t.Run("panic", func(t *testing.T) {
		core, _ := observer.New(zapcore.DebugLevel)

		p, err := New(WithCore(core))
		require.NoError(t, err)

		require.Panics(t, func() {
			p.GetLogger("engine").Panicf("boom")
		})
	})

	t.Run("unsupported encoding", func(t *testing.T) {
		_, err := New(WithEncoding("xml"))
		require.Error(t, err)
	})
}
