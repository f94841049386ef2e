/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmdutil

import (
	"net/http"

	"github.com/hyperledger/aries-credential-exchange/pkg/controller/command"
)

// HTTPHandler binds an http.HandlerFunc to a route. It implements rest.Handler.
type HTTPHandler struct {
	path   string
	method string
	handle http.HandlerFunc
}

// NewHTTPHandler returns the handler of method requests on path.
func NewHTTPHandler(path, method string, handle http.HandlerFunc) *HTTPHandler {
	return &HTTPHandler{path: path, method: method, handle: handle}
}

// Path is the mux route template, for example /issuecredential/{piid}/accept-offer.
func (h *HTTPHandler) Path() string {
	return h.path
}

// Method is the HTTP method of the route.
func (h *HTTPHandler) Method() string {
	return h.method
}

// Handle returns the handler func.
func (h *HTTPHandler) Handle() http.HandlerFunc {
	return h.handle
}

// CommandHandler binds a command.Exec to a command name. It implements command.Handler.
type CommandHandler struct {
	name   string
	method string
	exec   command.Exec
}

// NewCommandHandler returns the handler of the method of the named command.
func NewCommandHandler(name, method string, exec command.Exec) *CommandHandler {
	return &CommandHandler{name: name, method: method, exec: exec}
}

// Name of the command, for example "issuecredential".
func (c *CommandHandler) Name() string {
	return c.name
}

// Method of the command, for example "AcceptOffer".
func (c *CommandHandler) Method() string {
	return c.method
}

// Handle returns the command function.
func (c *CommandHandler) Handle() command.Exec {
	return c.exec
}
