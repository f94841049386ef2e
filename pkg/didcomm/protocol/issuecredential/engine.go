/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/didcommmsg"
)

var logger = log.New("credex/issuecredential/engine")

// RecordStore persists exchange records. Update must reject stale records with
// credentialexchange.ErrStaleRecord.
type RecordStore interface {
	Save(ctx context.Context, rec *credentialexchange.Record) error
	Update(ctx context.Context, rec *credentialexchange.Record) error
	Get(ctx context.Context, id string) (*credentialexchange.Record, error)
	FindByQuery(ctx context.Context, q credentialexchange.Query) ([]*credentialexchange.Record, error)
	FindSingleByQuery(ctx context.Context, q credentialexchange.Query) (*credentialexchange.Record, error)
	Delete(ctx context.Context, id string) error
}

// MessageLog persists the messages of exchanges.
type MessageLog interface {
	Save(exchangeID, kind string, role didcommmsg.Role, msg []byte) error
	Find(exchangeID, kind string, role didcommmsg.Role) (*didcommmsg.Record, error)
	DeleteByExchange(exchangeID string) error
}

// ConnectionTrust decides whether inbound messages may act on an exchange.
type ConnectionTrust interface {
	// AssertAuthorized fails if inbound did not arrive over a ready connection, or over a connection other
	// than expectedConnectionID when that is set.
	AssertAuthorized(ctx context.Context, inbound service.InboundContext, expectedConnectionID string) error
	// MatchToPriorRequest fails if a message on threadID does not answer a connection-less message sent earlier.
	MatchToPriorRequest(ctx context.Context, threadID string, inbound service.InboundContext) error
}

// Provider contains dependencies for the protocol engine.
type Provider interface {
	FormatRegistry() *format.Registry
	RecordStore() RecordStore
	MessageLog() MessageLog
	ConnectionTrust() ConnectionTrust
}

// Result is the outcome of an operation.
type Result struct {
	// Record is a snapshot of the exchange after the operation.
	Record credentialexchange.Record
	// Message is the message to send to the counterparty, nil if there is none.
	Message *Message
	Events  []Event
}

// Opt configures the engine.
type Opt func(e *Engine)

// WithAutoAccept sets the auto accept mode of exchanges that do not set their own.
func WithAutoAccept(mode credentialexchange.AutoAccept) Opt {
	return func(e *Engine) {
		e.autoAccept = mode
	}
}

// WithMaxNegotiationRounds limits how often an exchange may be negotiated. Zero means no limit.
func WithMaxNegotiationRounds(n int) Opt {
	return func(e *Engine) {
		e.maxRounds = n
	}
}

// WithMetrics sets the collector of engine metrics.
func WithMetrics(m Metrics) Opt {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine runs the issue-credential protocol of one version.
// Operations on different threads may run concurrently. Operations on one thread must be serialized by the
// caller or retried on credentialexchange.ErrStaleRecord.
type Engine struct {
	version    Version
	coord      *coordinator
	registry   *format.Registry
	records    RecordStore
	messages   MessageLog
	trust      ConnectionTrust
	autoAccept credentialexchange.AutoAccept
	maxRounds  int
	metrics    Metrics
}

// New returns the protocol engine of version v.
func New(v Version, p Provider, opts ...Opt) (*Engine, error) {
	registry := p.FormatRegistry()
	if registry == nil || len(registry.Keys()) == 0 {
		return nil, errors.New("at least one credential format is required")
	}

	var plugin format.Plugin

	if v == V1 {
		keys := registry.Keys()
		if len(keys) != 1 {
			return nil, fmt.Errorf("v1 engine needs exactly one credential format, got %d", len(keys))
		}

		plugin, _ = registry.Get(keys[0]) //nolint:errcheck
	}

	c, err := codecFor(v, plugin)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		version:    v,
		coord:      &coordinator{registry: registry, codec: c},
		registry:   registry,
		records:    p.RecordStore(),
		messages:   p.MessageLog(),
		trust:      p.ConnectionTrust(),
		autoAccept: credentialexchange.AutoAcceptNever,
		metrics:    noopMetrics{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Version returns the protocol version of the engine.
func (e *Engine) Version() Version {
	return e.version
}

// ParseMessage decodes a message of the engine's protocol version.
func (e *Engine) ParseMessage(raw []byte) (*Message, error) {
	return e.coord.codec.decode(raw)
}

// GetRecord returns a snapshot of an exchange.
func (e *Engine) GetRecord(ctx context.Context, id string) (credentialexchange.Record, error) {
	rec, err := e.getRecord(ctx, id)
	if err != nil {
		return credentialexchange.Record{}, err
	}

	return rec.Clone(), nil
}

// FindRecords returns snapshots of the exchanges of this engine's protocol version that match q.
func (e *Engine) FindRecords(ctx context.Context, q credentialexchange.Query) ([]credentialexchange.Record, error) {
	recs, err := e.records.FindByQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	var out []credentialexchange.Record

	for _, rec := range recs {
		if rec.ProtocolVersion == string(e.version) {
			out = append(out, rec.Clone())
		}
	}

	return out, nil
}

func (e *Engine) getRecord(ctx context.Context, id string) (*credentialexchange.Record, error) {
	rec, err := e.records.Get(ctx, id)
	if errors.Is(err, credentialexchange.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	if rec.ProtocolVersion != string(e.version) {
		return nil, fmt.Errorf("exchange %s uses protocol %s, not %s", id, rec.ProtocolVersion, e.version)
	}

	return rec, nil
}

// findByThread returns the exchange of role on threadID, nil if there is none.
func (e *Engine) findByThread(ctx context.Context, threadID string,
	role credentialexchange.Role) (*credentialexchange.Record, error) {
	return e.records.FindSingleByQuery(ctx, credentialexchange.Query{ThreadID: threadID, Role: role})
}

func (e *Engine) newRecord(role credentialexchange.Role, connectionID, parentThreadID string,
	mode credentialexchange.AutoAccept) *credentialexchange.Record {
	return &credentialexchange.Record{
		ID:                   uuid.New().String(),
		ParentThreadID:       parentThreadID,
		ConnectionID:         connectionID,
		ProtocolVersion:      string(e.version),
		Role:                 role,
		State:                stateNameStart,
		AutoAcceptCredential: mode,
	}
}

// commit logs msg and moves rec to the target state of op. New records are saved, others updated.
// Nothing is returned unless the record was stored.
func (e *Engine) commit(ctx context.Context, op operation, rec *credentialexchange.Record, msg *Message,
	role didcommmsg.Role) (*Result, error) {
	previous := rec.State
	next := stateByName(op.to)

	if !stateByName(previous).CanTransitionTo(next) || !reachable(rec.Role, op.to) {
		return nil, &StateError{Operation: op.name, Current: previous, Expected: op.from}
	}

	if msg != nil {
		if err := e.logMessage(rec.ID, msg, role); err != nil {
			return nil, err
		}
	}

	rec.State = op.to

	var err error

	if previous == stateNameStart {
		err = e.records.Save(ctx, rec)
	} else {
		err = e.records.Update(ctx, rec)
	}

	if err != nil {
		rec.State = previous

		return nil, fmt.Errorf("%s: store record: %w", op.name, err)
	}

	logger.Debugf("exchange %s thread %s: %s -> %s", rec.ID, rec.ThreadID, previous, rec.State)
	e.metrics.Transition(e.version, op.name, previous, rec.State)

	snapshot := rec.Clone()

	res := &Result{
		Record: snapshot,
		Events: []Event{{Type: EventStateChanged, Record: snapshot, PreviousState: previous}},
	}

	if role == didcommmsg.RoleSender {
		res.Message = msg
	}

	return res, nil
}

func (e *Engine) logMessage(exchangeID string, msg *Message, role didcommmsg.Role) error {
	raw, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Kind, err)
	}

	if err = e.messages.Save(exchangeID, string(msg.Kind), role, raw); err != nil {
		return fmt.Errorf("log %s: %w", msg.Kind, err)
	}

	return nil
}

// findMessage loads a logged message, nil if there is none.
func (e *Engine) findMessage(exchangeID string, kind MessageKind, role didcommmsg.Role) (*Message, error) {
	rec, err := e.messages.Find(exchangeID, string(kind), role)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}

	if rec == nil {
		return nil, nil
	}

	return e.coord.codec.decode(rec.Message)
}

// findAnyMessage loads a logged message whichever side sent it.
func (e *Engine) findAnyMessage(exchangeID string, kind MessageKind) (*Message, error) {
	msg, err := e.findMessage(exchangeID, kind, didcommmsg.RoleSender)
	if err != nil || msg != nil {
		return msg, err
	}

	return e.findMessage(exchangeID, kind, didcommmsg.RoleReceiver)
}

// authorize checks the sender of a message on an existing exchange and binds its connection to the
// exchange if it has none.
func (e *Engine) authorize(ctx context.Context, rec *credentialexchange.Record, inbound service.InboundContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if inbound.ConnectionID != "" {
		if err := e.trust.AssertAuthorized(ctx, inbound, rec.ConnectionID); err != nil {
			return fmt.Errorf("%w: %w", ErrUnauthorizedSender, err)
		}

		if rec.ConnectionID == "" {
			if err := e.trust.MatchToPriorRequest(ctx, rec.ThreadID, inbound); err != nil {
				return fmt.Errorf("%w: %w", ErrUnauthorizedSender, err)
			}

			rec.ConnectionID = inbound.ConnectionID
		}

		return nil
	}

	if rec.ConnectionID != "" {
		return fmt.Errorf("%w: exchange %s is bound to connection %s, message has none",
			ErrUnauthorizedSender, rec.ID, rec.ConnectionID)
	}

	if err := e.trust.MatchToPriorRequest(ctx, rec.ThreadID, inbound); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorizedSender, err)
	}

	return nil
}

// authorizeNew checks the sender of a message starting an exchange.
func (e *Engine) authorizeNew(ctx context.Context, inbound service.InboundContext) error {
	if inbound.ConnectionID == "" {
		return ctx.Err()
	}

	if err := e.trust.AssertAuthorized(ctx, inbound, ""); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorizedSender, err)
	}

	return nil
}

// countRound records a negotiation round on rec.
func (e *Engine) countRound(rec *credentialexchange.Record) error {
	if e.maxRounds > 0 && rec.NegotiationRounds >= e.maxRounds {
		return fmt.Errorf("%w: exchange %s was negotiated %d times", ErrNegotiationLimit, rec.ID,
			rec.NegotiationRounds)
	}

	rec.NegotiationRounds++

	return nil
}

// replyMessage returns a message of kind without attachments on the thread of rec.
func (e *Engine) replyMessage(rec *credentialexchange.Record, kind MessageKind) *Message {
	return &Message{
		Version: e.version,
		Kind:    kind,
		ID:      uuid.New().String(),
		Thread:  decorator.Thread{ID: rec.ThreadID, PID: rec.ParentThreadID},
	}
}

func expectKind(msg *Message, kind MessageKind) error {
	if msg == nil || msg.Kind != kind {
		return fmt.Errorf("expected a %s message", kind)
	}

	return nil
}

func setAttributes(rec *credentialexchange.Record, msg *Message) {
	if msg.Preview != nil {
		rec.CredentialAttributes = append([]format.Attribute(nil), msg.Preview.Attributes...)
	}
}

func (e *Engine) failed(op operation, err error) error {
	if err != nil {
		e.metrics.Failure(e.version, op.name)
	}

	return err
}
