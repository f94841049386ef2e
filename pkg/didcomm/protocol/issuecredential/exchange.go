/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

// Delete removes an exchange. By default the credentials it stored and its logged messages are removed too.
// The record is deleted first; cleanup errors are collected and returned together.
func (e *Engine) Delete(ctx context.Context, recordID string, opts ...DeleteOpt) error {
	o := &deleteOpts{credentials: true, messages: true}

	for _, opt := range opts {
		opt(o)
	}

	rec, err := e.getRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if err = e.records.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("delete exchange %s: %w", rec.ID, err)
	}

	if o.credentials {
		err = multierr.Append(err, deleteCredentials(ctx, e.registry, rec.Credentials))
	}

	if o.messages {
		if derr := e.messages.DeleteByExchange(rec.ID); derr != nil {
			err = multierr.Append(err, fmt.Errorf("delete messages of exchange %s: %w", rec.ID, derr))
		}
	}

	return err
}

// deleteCredentials removes stored credentials through the plugins owning their record types.
func deleteCredentials(ctx context.Context, registry *format.Registry, bindings []format.CredentialBinding) error {
	var errs []error

	plugins := make([]format.Plugin, len(bindings))

	for i, b := range bindings {
		p, err := registry.ByRecordType(b.CredentialRecordType)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		plugins[i] = p
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]error, len(bindings))

	for i := range bindings {
		if plugins[i] == nil {
			continue
		}

		i := i

		g.Go(func() error {
			if err := plugins[i].DeleteStoredCredential(gctx, bindings[i].CredentialRecordID); err != nil {
				results[i] = fmt.Errorf("delete %s credential %s: %w", plugins[i].Key(),
					bindings[i].CredentialRecordID, err)
			}

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck

	return multierr.Combine(append(errs, results...)...)
}

// FormatData is the format specific content exchanged so far, keyed by plugin.
type FormatData struct {
	ProposalAttributes []format.Attribute             `json:"proposalAttributes,omitempty"`
	OfferAttributes    []format.Attribute             `json:"offerAttributes,omitempty"`
	Proposal           map[format.Key]json.RawMessage `json:"proposal,omitempty"`
	Offer              map[format.Key]json.RawMessage `json:"offer,omitempty"`
	Request            map[format.Key]json.RawMessage `json:"request,omitempty"`
	Credential         map[format.Key]json.RawMessage `json:"credential,omitempty"`
}

// GetFormatData returns the decoded attachments of every message logged for an exchange.
func (e *Engine) GetFormatData(ctx context.Context, recordID string) (*FormatData, error) {
	rec, err := e.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	data := &FormatData{}

	for _, kind := range []MessageKind{KindProposal, KindOffer, KindRequest, KindCredential} {
		msg, err := e.findAnyMessage(rec.ID, kind)
		if err != nil {
			return nil, err
		}

		if msg == nil {
			continue
		}

		payloads, err := e.payloads(msg)
		if err != nil {
			return nil, err
		}

		switch kind {
		case KindProposal:
			data.Proposal = payloads
			data.ProposalAttributes = msg.Attributes()
		case KindOffer:
			data.Offer = payloads
			data.OfferAttributes = msg.Attributes()
		case KindRequest:
			data.Request = payloads
		case KindCredential:
			data.Credential = payloads
		}
	}

	return data, nil
}

// payloads returns the attachment contents of msg keyed by plugin. Contents that are not JSON are
// returned as JSON strings.
func (e *Engine) payloads(msg *Message) (map[format.Key]json.RawMessage, error) {
	out := map[format.Key]json.RawMessage{}

	for _, plugin := range e.registry.ForFormats(msg.FormatIDs()) {
		att, err := msg.attachment(plugin)
		if err != nil {
			return nil, err
		}

		if att == nil {
			continue
		}

		contents, err := att.Data.Fetch()
		if err != nil {
			return nil, fmt.Errorf("%s %s attachment: %w", msg.Kind, plugin.Key(), err)
		}

		if !json.Valid(contents) {
			if contents, err = json.Marshal(string(contents)); err != nil {
				return nil, err
			}
		}

		out[plugin.Key()] = contents
	}

	return out, nil
}

// FindProposalMessage returns the proposal logged for an exchange, nil if there is none.
func (e *Engine) FindProposalMessage(ctx context.Context, recordID string) (*Message, error) {
	return e.findExchangeMessage(ctx, recordID, KindProposal)
}

// FindOfferMessage returns the offer logged for an exchange, nil if there is none.
func (e *Engine) FindOfferMessage(ctx context.Context, recordID string) (*Message, error) {
	return e.findExchangeMessage(ctx, recordID, KindOffer)
}

// FindRequestMessage returns the request logged for an exchange, nil if there is none.
func (e *Engine) FindRequestMessage(ctx context.Context, recordID string) (*Message, error) {
	return e.findExchangeMessage(ctx, recordID, KindRequest)
}

// FindCredentialMessage returns the issued credential logged for an exchange, nil if there is none.
func (e *Engine) FindCredentialMessage(ctx context.Context, recordID string) (*Message, error) {
	return e.findExchangeMessage(ctx, recordID, KindCredential)
}

func (e *Engine) findExchangeMessage(ctx context.Context, recordID string, kind MessageKind) (*Message, error) {
	rec, err := e.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	return e.findAnyMessage(rec.ID, kind)
}

// ProcessRevocationNotification marks the credential stored under notice.CredentialRecordID revoked.
// The state of the exchange is not changed.
func (e *Engine) ProcessRevocationNotification(ctx context.Context, notice *RevocationNotice) (*Result, error) {
	if notice.CredentialRecordID == "" {
		return nil, errors.New("credential record id is required")
	}

	rec, err := e.records.FindSingleByQuery(ctx,
		credentialexchange.Query{CredentialRecordID: notice.CredentialRecordID})
	if err != nil {
		return nil, err
	}

	if rec == nil || rec.ProtocolVersion != string(e.version) {
		return nil, fmt.Errorf("%w: no exchange stored credential %s", ErrRecordNotFound, notice.CredentialRecordID)
	}

	if rec.Role != credentialexchange.RoleHolder {
		return nil, fmt.Errorf("exchange %s is not a holder exchange", rec.ID)
	}

	rec.RevocationNotification = &credentialexchange.RevocationNotification{
		RevocationDate: notice.RevocationDate,
		Comment:        notice.Comment,
	}

	if err = e.records.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("store revocation of exchange %s: %w", rec.ID, err)
	}

	logger.Infof("exchange %s: credential %s revoked", rec.ID, notice.CredentialRecordID)

	snapshot := rec.Clone()

	return &Result{
		Record: snapshot,
		Events: []Event{{
			Type:          EventRevocationNotificationReceived,
			Record:        snapshot,
			PreviousState: snapshot.State,
		}},
	}, nil
}
