/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/connection"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

var logger = log.New("credex/client/issuecredential")

const (
	defaultRetryInterval = 50 * time.Millisecond
	defaultMaxRetries    = 5
)

var (
	errEmptyParams    = errors.New("parameters are required")
	errNoDestination  = errors.New("connection-less message needs a recipient DID")
	errNoEngines      = errors.New("at least one protocol engine is required")
	errUnknownVersion = errors.New("no engine for protocol version")
)

// Sender delivers outbound protocol messages.
type Sender interface {
	SendToDID(ctx context.Context, msg service.DIDCommMsgMap, myDID, theirDID string) error
}

// RecordReader reads exchange records of any protocol version.
type RecordReader interface {
	Get(ctx context.Context, id string) (*credentialexchange.Record, error)
}

// ConnectionLookup resolves connections to the DIDs of both sides.
type ConnectionLookup interface {
	GetConnectionRecord(connectionID string) (*connection.Record, error)
}

// RequestRecorder remembers connection-less messages so that replies can be matched to them.
type RequestRecorder interface {
	RememberRequest(threadID, recipientDID string) error
}

// Provider contains dependencies for the issuecredential client.
type Provider interface {
	Engines() []*issuecredential.Engine
	Records() RecordReader
	Outbound() Sender
	Connections() ConnectionLookup
	RequestRecorder() RequestRecorder
}

// Opt configures the client.
type Opt func(c *Client)

// WithMiddleware adds middleware run after every completed step, before events are published and the
// outbound message is sent.
func WithMiddleware(mws ...issuecredential.Middleware) Opt {
	return func(c *Client) {
		c.middleware = append(c.middleware, mws...)
	}
}

// WithAutoContinue sets whether received messages are answered when the auto accept policy allows it.
// It is on by default.
func WithAutoContinue(v bool) Opt {
	return func(c *Client) {
		c.autoContinue = v
	}
}

// WithRetry sets how steps failing on a concurrently modified record are retried.
func WithRetry(maxRetries uint64, interval time.Duration) Opt {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryInterval = interval
	}
}

// WithDefaultVersion sets the protocol version of exchanges started without one.
func WithDefaultVersion(v issuecredential.Version) Opt {
	return func(c *Client) {
		c.defaultVersion = v
	}
}

// Client enables access to the issuecredential protocol. Steps on one thread are serialized.
type Client struct {
	service.Message
	engines        map[issuecredential.Version]*issuecredential.Engine
	defaultVersion issuecredential.Version
	records        RecordReader
	outbound       Sender
	connections    ConnectionLookup
	requests       RequestRecorder
	middleware     []issuecredential.Middleware
	locks          *threadLocks
	autoContinue   bool
	maxRetries     uint64
	retryInterval  time.Duration
}

// New returns new instance of the issuecredential client.
func New(p Provider, opts ...Opt) (*Client, error) {
	engines := p.Engines()
	if len(engines) == 0 {
		return nil, errNoEngines
	}

	c := &Client{
		engines:       map[issuecredential.Version]*issuecredential.Engine{},
		records:       p.Records(),
		outbound:      p.Outbound(),
		connections:   p.Connections(),
		requests:      p.RequestRecorder(),
		locks:         newThreadLocks(),
		autoContinue:  true,
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
	}

	for _, e := range engines {
		c.engines[e.Version()] = e
	}

	c.defaultVersion = engines[0].Version()
	if _, ok := c.engines[issuecredential.V2]; ok {
		c.defaultVersion = issuecredential.V2
	}

	for _, opt := range opts {
		opt(c)
	}

	if _, ok := c.engines[c.defaultVersion]; !ok {
		return nil, fmt.Errorf("%w %s", errUnknownVersion, c.defaultVersion)
	}

	return c, nil
}

// Versions returns the protocol versions the client speaks.
func (c *Client) Versions() []issuecredential.Version {
	versions := make([]issuecredential.Version, 0, len(c.engines))

	for _, v := range []issuecredential.Version{issuecredential.V1, issuecredential.V2} {
		if _, ok := c.engines[v]; ok {
			versions = append(versions, v)
		}
	}

	return versions
}

func (c *Client) engine(v issuecredential.Version) (*issuecredential.Engine, error) {
	if v == "" {
		v = c.defaultVersion
	}

	e, ok := c.engines[v]
	if !ok {
		return nil, fmt.Errorf("%w %s", errUnknownVersion, v)
	}

	return e, nil
}

// engineFor returns the engine of a stored exchange together with a snapshot of it.
func (c *Client) engineFor(ctx context.Context, recordID string) (*issuecredential.Engine,
	*credentialexchange.Record, error) {
	rec, err := c.records.Get(ctx, recordID)
	if errors.Is(err, credentialexchange.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", issuecredential.ErrRecordNotFound, recordID)
	}

	if err != nil {
		return nil, nil, err
	}

	e, err := c.engine(issuecredential.Version(rec.ProtocolVersion))
	if err != nil {
		return nil, nil, err
	}

	return e, rec, nil
}

// withRetry runs step until it does not fail on a concurrently modified record.
func (c *Client) withRetry(ctx context.Context,
	step func() (*issuecredential.Result, error)) (*issuecredential.Result, error) {
	var res *issuecredential.Result

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryInterval), c.maxRetries), ctx)

	err := backoff.RetryNotify(func() error {
		var err error

		res, err = step()
		if err == nil || errors.Is(err, credentialexchange.ErrStaleRecord) {
			return err
		}

		return backoff.Permanent(err)
	}, b, func(err error, d time.Duration) {
		logger.Debugf("retrying step in %s: %v", d, err)
	})

	return res, err
}

type destination struct {
	myDID    string
	theirDID string
}

// destinationOf resolves where the messages of rec go. Exchanges bound to a connection use it, others use
// fallback.
func (c *Client) destinationOf(rec *credentialexchange.Record, fallback destination) (destination, error) {
	if rec.ConnectionID == "" {
		if fallback.theirDID == "" {
			return destination{}, errNoDestination
		}

		return fallback, nil
	}

	conn, err := c.connections.GetConnectionRecord(rec.ConnectionID)
	if err != nil {
		return destination{}, fmt.Errorf("resolve connection %s: %w", rec.ConnectionID, err)
	}

	return destination{myDID: conn.MyDID, theirDID: conn.TheirDID}, nil
}

// finish runs the middleware of a completed step, then publishes its events and sends its message.
func (c *Client) finish(ctx context.Context, res *issuecredential.Result, inbound *issuecredential.Message,
	dest destination) error {
	last := issuecredential.HandlerFunc(func(md issuecredential.MetaData) error {
		if err := c.publish(ctx, res, md.Message()); err != nil {
			return err
		}

		return c.send(ctx, res, dest)
	})

	return issuecredential.Chain(last, c.middleware...).Handle(issuecredential.NewMetaData(res, inbound))
}

func (c *Client) publish(ctx context.Context, res *issuecredential.Result, msg *issuecredential.Message) error {
	var msgMap service.DIDCommMsgMap

	if msg != nil {
		m, err := msg.AsMap()
		if err != nil {
			return err
		}

		msgMap = m
	}

	for i := range res.Events {
		ev := &res.Events[i]

		err := c.Publish(ctx, service.StateMsg{
			ProtocolName: issuecredential.Name,
			Type:         service.PostState,
			StateID:      string(ev.Record.State),
			Msg:          msgMap,
			Properties:   ev.Properties(),
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", ev.Type, err)
		}
	}

	return nil
}

func (c *Client) send(ctx context.Context, res *issuecredential.Result, dest destination) error {
	if res.Message == nil {
		return nil
	}

	rec := &res.Record

	to, err := c.destinationOf(rec, dest)
	if err != nil {
		return err
	}

	if rec.ConnectionID == "" {
		if err = c.requests.RememberRequest(rec.ThreadID, to.theirDID); err != nil {
			return fmt.Errorf("remember connection-less %s: %w", res.Message.Kind, err)
		}
	}

	msg, err := res.Message.AsMap()
	if err != nil {
		return err
	}

	if err = c.outbound.SendToDID(ctx, msg, to.myDID, to.theirDID); err != nil {
		return fmt.Errorf("send %s: %w", res.Message.Kind, err)
	}

	logger.Debugf("sent %s on thread %s", res.Message.Kind, rec.ThreadID)

	return nil
}
