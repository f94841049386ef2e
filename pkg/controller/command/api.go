/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package command holds the transport independent controller API. A command reads its JSON arguments
// from a reader and writes its JSON response to a writer, so the same commands back the REST API and
// in-process callers.
package command

import "io"

// Exec runs one command.
type Exec func(rw io.Writer, req io.Reader) Error

// Handler exposes one method of a command.
type Handler interface {
	Name() string
	Method() string
	Handle() Exec
}

// Notifier receives the JSON notifications commands publish under a topic.
type Notifier interface {
	Notify(topic string, message []byte) error
}
