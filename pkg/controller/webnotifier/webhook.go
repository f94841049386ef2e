/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/multierr"
)

const (
	defaultWebhookRetries  = 3
	defaultWebhookInterval = 500 * time.Millisecond
)

// HTTPNotifierOpt configures an HTTPNotifier.
type HTTPNotifierOpt func(n *HTTPNotifier)

// WithHTTPClient sets the client used to post notifications.
func WithHTTPClient(client *http.Client) HTTPNotifierOpt {
	return func(n *HTTPNotifier) {
		n.client = client
	}
}

// WithWebhookRetry sets how many times a failed notification is posted again and the wait in between.
func WithWebhookRetry(maxRetries uint64, interval time.Duration) HTTPNotifierOpt {
	return func(n *HTTPNotifier) {
		n.maxRetries = maxRetries
		n.interval = interval
	}
}

// HTTPNotifier is a webhook dispatcher capable of notifying multiple subscribers via HTTP.
type HTTPNotifier struct {
	urls       []string
	client     *http.Client
	maxRetries uint64
	interval   time.Duration
}

// NewHTTPNotifier returns a new instance of an HTTPNotifier.
func NewHTTPNotifier(webhookURLs []string, opts ...HTTPNotifierOpt) *HTTPNotifier {
	n := &HTTPNotifier{
		urls:       webhookURLs,
		client:     http.DefaultClient,
		maxRetries: defaultWebhookRetries,
		interval:   defaultWebhookInterval,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Notify posts the given message to all of the urls.
// Every subscriber gets the same topic envelope; failures of all subscribers are combined.
func (n *HTTPNotifier) Notify(topic string, message []byte) error {
	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return err
	}

	var allErrs error

	for _, webhookURL := range n.urls {
		allErrs = multierr.Append(allErrs, n.notifyWithRetry(webhookURL, topicMsg))
	}

	return allErrs
}

func (n *HTTPNotifier) notifyWithRetry(destination string, message []byte) error {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(n.interval), n.maxRetries)

	return backoff.RetryNotify(func() error {
		return n.notifyWH(destination, message)
	}, b, func(err error, d time.Duration) {
		logger.Debugf("webhook %s failed, retrying in %s: %v", destination, d, err)
	})
}

func (n *HTTPNotifier) notifyWH(destination string, message []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination,
		bytes.NewBuffer(message))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create new http post request for %s: %w", destination, err))
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification to %s: %w", destination, err)
	}

	defer closeResponse(resp.Body)

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated ||
		resp.StatusCode == http.StatusAccepted {
		logger.Debugf("Notification sent to %s successfully.", destination)
		return nil
	}

	err = fmt.Errorf("notification was sent to %s, but %s was received", destination, resp.Status)
	if resp.StatusCode < http.StatusInternalServerError {
		return backoff.Permanent(err)
	}

	return err
}

func closeResponse(c io.Closer) {
	err := c.Close()
	if err != nil {
		logger.Errorf("Failed to close response body")
	}
}
