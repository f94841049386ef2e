/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bluele/gcache"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
)

const (
	defaultRequestTTL       = 24 * time.Hour
	defaultRequestCacheSize = 1024
)

// ErrUnauthorized is returned when a message does not come from the expected counterparty.
var ErrUnauthorized = errors.New("sender is not authorized")

type priorRequest struct {
	recipientDID string
}

// Trust decides whether an inbound message may act on an exchange.
type Trust struct {
	lookup   *Lookup
	requests gcache.Cache
}

// TrustOpt configures Trust.
type TrustOpt func(o *trustOpts)

type trustOpts struct {
	ttl  time.Duration
	size int
}

// WithRequestTTL sets how long connection-less requests are remembered.
func WithRequestTTL(ttl time.Duration) TrustOpt {
	return func(o *trustOpts) {
		o.ttl = ttl
	}
}

// WithRequestCacheSize sets how many connection-less requests are remembered.
func WithRequestCacheSize(size int) TrustOpt {
	return func(o *trustOpts) {
		o.size = size
	}
}

// NewTrust returns connection trust backed by the connection records of lookup.
func NewTrust(lookup *Lookup, opts ...TrustOpt) *Trust {
	o := &trustOpts{ttl: defaultRequestTTL, size: defaultRequestCacheSize}

	for _, opt := range opts {
		opt(o)
	}

	return &Trust{
		lookup:   lookup,
		requests: gcache.New(o.size).LRU().Expiration(o.ttl).Build(),
	}
}

// AssertAuthorized checks that inbound arrived over a ready connection and, when expectedConnectionID is set,
// that it is that connection.
func (t *Trust) AssertAuthorized(ctx context.Context, inbound service.InboundContext,
	expectedConnectionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if inbound.ConnectionID == "" {
		return fmt.Errorf("%w: message has no connection", ErrUnauthorized)
	}

	if expectedConnectionID != "" && inbound.ConnectionID != expectedConnectionID {
		return fmt.Errorf("%w: message came over connection %s, expected %s",
			ErrUnauthorized, inbound.ConnectionID, expectedConnectionID)
	}

	rec, err := t.lookup.GetConnectionRecord(inbound.ConnectionID)
	if errors.Is(err, ErrConnectionNotFound) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if err != nil {
		return fmt.Errorf("get connection %s: %w", inbound.ConnectionID, err)
	}

	if !rec.Ready() {
		return fmt.Errorf("%w: connection %s is in state %q", ErrUnauthorized, rec.ConnectionID, rec.State)
	}

	if inbound.TheirDID != "" && rec.TheirDID != "" && inbound.TheirDID != rec.TheirDID {
		return fmt.Errorf("%w: sender %s does not own connection %s", ErrUnauthorized, inbound.TheirDID, rec.ConnectionID)
	}

	if inbound.MyDID != "" && rec.MyDID != "" && inbound.MyDID != rec.MyDID {
		return fmt.Errorf("%w: recipient %s does not own connection %s", ErrUnauthorized, inbound.MyDID, rec.ConnectionID)
	}

	return nil
}

// RememberRequest records a connection-less message sent on threadID so that replies can be matched to it.
// recipientDID may be empty when the recipient is not known yet.
func (t *Trust) RememberRequest(threadID, recipientDID string) error {
	if threadID == "" {
		return errors.New("thread id is required")
	}

	return t.requests.Set(threadID, priorRequest{recipientDID: recipientDID})
}

// MatchToPriorRequest checks that a message on threadID answers a connection-less request this agent sent.
func (t *Trust) MatchToPriorRequest(ctx context.Context, threadID string, inbound service.InboundContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v, err := t.requests.Get(threadID)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return fmt.Errorf("%w: no prior request on thread %s", ErrUnauthorized, threadID)
	}

	if err != nil {
		return fmt.Errorf("get prior request of thread %s: %w", threadID, err)
	}

	req := v.(priorRequest) //nolint:forcetypeassert

	if req.recipientDID != "" && inbound.TheirDID != "" && req.recipientDID != inbound.TheirDID {
		return fmt.Errorf("%w: thread %s was sent to %s, reply came from %s",
			ErrUnauthorized, threadID, req.recipientDID, inbound.TheirDID)
	}

	return nil
}
