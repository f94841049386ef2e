/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"go.uber.org/multierr"

	"github.com/hyperledger/aries-credential-exchange/pkg/controller/rest"
)

var logger = log.New("credex/webnotifier")

const (
	notificationSendTimeout = 10 * time.Second
	emptyTopicErrMsg        = "cannot notify with an empty topic"
	emptyMessageErrMsg      = "cannot notify with an empty message"
	failedToCreateErrMsg    = "failed to create topic message: %w"
)

var (
	errEmptyTopic   = errors.New(emptyTopicErrMsg)
	errEmptyMessage = errors.New(emptyMessageErrMsg)
)

type notifier interface {
	Notify(topic string, message []byte) error
}

// WebNotifier notifies both the websocket clients and the webhook subscribers.
type WebNotifier struct {
	notifiers []notifier
	handlers  []rest.Handler
}

// New returns a notifier that serves websocket clients on wsPath and posts to webhookURLs.
func New(wsPath string, webhookURLs []string, opts ...HTTPNotifierOpt) *WebNotifier {
	ws := NewWSNotifier(wsPath)

	return &WebNotifier{
		notifiers: []notifier{ws, NewHTTPNotifier(webhookURLs, opts...)},
		handlers:  ws.GetRESTHandlers(),
	}
}

// Notify sends the given message to every subscriber. Errors of all notifiers are combined.
func (n *WebNotifier) Notify(topic string, message []byte) error {
	var errs error

	for _, nt := range n.notifiers {
		errs = multierr.Append(errs, nt.Notify(topic, message))
	}

	return errs
}

// GetRESTHandlers returns the handlers of the websocket endpoint.
func (n *WebNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}

type topic struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Message json.RawMessage `json:"message"`
}

// PrepareTopicMessage wraps a JSON message into the topic envelope sent to subscribers.
func PrepareTopicMessage(topicName string, message []byte) ([]byte, error) {
	if topicName == "" {
		return nil, errEmptyTopic
	}

	if len(message) == 0 {
		return nil, errEmptyMessage
	}

	msg, err := json.Marshal(topic{
		ID:      uuid.New().String(),
		Topic:   topicName,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf(failedToCreateErrMsg, err)
	}

	return msg, nil
}
