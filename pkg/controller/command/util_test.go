/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Panicf(msg string, args ...interface{}) {}
func (l *recordingLogger) Fatalf(msg string, args ...interface{}) {}
func (l *recordingLogger) Warnf(msg string, args ...interface{})  {}
func (l *recordingLogger) Infof(msg string, args ...interface{})  {}
func (l *recordingLogger) Debugf(msg string, args ...interface{}) {}

func (l *recordingLogger) Errorf(msg string, args ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf(msg, args...))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestWriteNillableResponse(t *testing.T) {
	t.Run("nil value", func(t *testing.T) {
		var b bytes.Buffer

		WriteNillableResponse(&b, nil, &recordingLogger{})
		require.JSONEq(t, `{}`, b.String())
	})

	t.Run("value", func(t *testing.T) {
		var b bytes.Buffer

		WriteNillableResponse(&b, map[string]string{"piid": "abc"}, &recordingLogger{})
		require.JSONEq(t, `{"piid":"abc"}`, b.String())
	})

	t.Run("write error is logged", func(t *testing.T) {
		l := &recordingLogger{}

		WriteNillableResponse(failingWriter{}, struct{}{}, l)
		require.Len(t, l.errors, 1)
		require.Contains(t, l.errors[0], "closed")
	})

	t.Run("command errors", func(t *testing.T) {
		err := NewValidationError(Code(IssueCredential), errors.New("bad"))
		require.Equal(t, ValidationError, err.Type())
		require.Equal(t, Code(IssueCredential), err.Code())

		err = NewExecuteError(Code(Common), errors.New("failed"))
		require.Equal(t, ExecuteError, err.Type())
		require.EqualError(t, err, "failed")
	})
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("record not found")

	err := NewExecuteError(Code(IssueCredential)+14, cause)
	require.ErrorIs(t, err, cause)
}
