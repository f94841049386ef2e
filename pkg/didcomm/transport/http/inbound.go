/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/transport"
)

const maxPayloadSize = 1 << 20

// NewInboundHandler will create a new handler to enforce Did-Comm HTTP transport specs
// then routes processing to the mandatory 'msgHandler' argument.
//
// Envelopes are acknowledged with 202 Accepted and handled in the background with ctx, so that an agent
// answering on the same thread does not wait for its own reply to be processed.
func NewInboundHandler(ctx context.Context, msgHandler transport.InboundMessageHandler) (http.Handler, error) {
	if msgHandler == nil {
		return nil, errors.New("failed to create NewInboundHandler: message handler function is nil")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		processPOSTRequest(ctx, w, r, msgHandler)
	}), nil
}

func processPOSTRequest(ctx context.Context, w http.ResponseWriter, r *http.Request,
	messageHandler transport.InboundMessageHandler) {
	if valid := validateHTTPMethod(w, r); !valid {
		return
	}

	if valid := validatePayload(r, w); !valid {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		logger.Errorf("Error reading request body: %s - returning Code: %d", err, http.StatusInternalServerError)
		http.Error(w, "Failed to read payload", http.StatusInternalServerError)

		return
	}

	env := &transport.Envelope{}

	if err = json.Unmarshal(body, env); err != nil || len(env.Message) == 0 || env.To == "" {
		http.Error(w, "Invalid envelope", http.StatusBadRequest)

		return
	}

	w.WriteHeader(http.StatusAccepted)

	go func() {
		if err := messageHandler(ctx, env); err != nil {
			logger.Errorf("handling envelope from %s to %s: %v", env.From, env.To, err)
		}
	}()
}

// validatePayload validate and get the payload from the request.
func validatePayload(r *http.Request, w http.ResponseWriter) bool {
	if r.ContentLength == 0 { // empty payload should not be accepted
		http.Error(w, "Empty payload", http.StatusBadRequest)
		return false
	}

	return true
}

// validateHTTPMethod validate HTTP method and content-type.
func validateHTTPMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "HTTP Method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	ct := r.Header.Get("Content-type")

	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || mt != "application/json" {
		http.Error(w, fmt.Sprintf("Unsupported Content-type \"%s\"", ct), http.StatusUnsupportedMediaType)
		return false
	}

	return true
}
