/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/model"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/didcommmsg"
)

// CreateProposal starts an exchange as holder by proposing a credential.
func (e *Engine) CreateProposal(ctx context.Context, params *CreateProposalParams) (*Result, error) {
	res, err := e.createProposal(ctx, params)

	return res, e.failed(opCreateProposal, err)
}

func (e *Engine) createProposal(ctx context.Context, params *CreateProposalParams) (*Result, error) {
	plugins, err := e.coord.plugins(params.Formats, nil)
	if err != nil {
		return nil, err
	}

	rec := e.newRecord(credentialexchange.RoleHolder, params.ConnectionID, params.ParentThreadID, params.AutoAccept)
	rec.ThreadID = rec.ID

	msg, err := e.coord.build(ctx, &buildParams{
		kind:       KindProposal,
		messageID:  rec.ThreadID,
		rec:        rec,
		plugins:    plugins,
		formats:    params.Formats,
		attributes: params.Attributes,
		comment:    params.Comment,
	})
	if err != nil {
		return nil, err
	}

	setAttributes(rec, msg)

	return e.commit(ctx, opCreateProposal, rec, msg, didcommmsg.RoleSender)
}

// ProcessOffer handles an offer received by the holder, on a new thread or answering a proposal.
func (e *Engine) ProcessOffer(ctx context.Context, msg *Message, inbound service.InboundContext) (*Result, error) {
	res, err := e.processOffer(ctx, msg, inbound)

	return res, e.failed(opProcessOffer, err)
}

func (e *Engine) processOffer(ctx context.Context, msg *Message, inbound service.InboundContext) (*Result, error) {
	if err := expectKind(msg, KindOffer); err != nil {
		return nil, err
	}

	rec, err := e.findByThread(ctx, msg.ThreadID(), credentialexchange.RoleHolder)
	if err != nil {
		return nil, err
	}

	params := &processParams{msg: msg, offer: msg}

	if rec == nil {
		if err = e.authorizeNew(ctx, inbound); err != nil {
			return nil, err
		}

		rec = e.newRecord(credentialexchange.RoleHolder, inbound.ConnectionID, msg.Thread.PID, "")
		rec.ThreadID = msg.ThreadID()
	} else {
		if err = assertState(rec, opProcessOffer); err != nil {
			return nil, err
		}

		if err = e.authorize(ctx, rec, inbound); err != nil {
			return nil, err
		}

		if params.prior, err = e.findMessage(rec.ID, KindProposal, didcommmsg.RoleSender); err != nil {
			return nil, err
		}

		params.proposal = params.prior
	}

	params.rec = rec

	if _, err = e.coord.process(ctx, params); err != nil {
		return nil, err
	}

	setAttributes(rec, msg)

	return e.commit(ctx, opProcessOffer, rec, msg, didcommmsg.RoleReceiver)
}

// NegotiateOffer answers a received offer with a counter proposal.
func (e *Engine) NegotiateOffer(ctx context.Context, params *NegotiateOfferParams) (*Result, error) {
	res, err := e.negotiateOffer(ctx, params)

	return res, e.failed(opNegotiateOffer, err)
}

func (e *Engine) negotiateOffer(ctx context.Context, params *NegotiateOfferParams) (*Result, error) {
	rec, err := e.getRecord(ctx, params.RecordID)
	if err != nil {
		return nil, err
	}

	if err = assertState(rec, opNegotiateOffer); err != nil {
		return nil, err
	}

	if rec.ConnectionID == "" {
		return nil, fmt.Errorf("%w: connection-less offer %s cannot be negotiated", ErrConnectionRequired, rec.ID)
	}

	if err = e.countRound(rec); err != nil {
		return nil, err
	}

	offer, err := e.findMessage(rec.ID, KindOffer, didcommmsg.RoleReceiver)
	if err != nil {
		return nil, err
	}

	plugins, err := e.coord.plugins(params.Formats, offer)
	if err != nil {
		return nil, err
	}

	msg, err := e.coord.build(ctx, &buildParams{
		kind:       KindProposal,
		rec:        rec,
		plugins:    plugins,
		formats:    params.Formats,
		attributes: params.Attributes,
		comment:    params.Comment,
		offer:      offer,
	})
	if err != nil {
		return nil, err
	}

	setAttributes(rec, msg)
	overrideAutoAccept(rec, params.AutoAccept)

	return e.commit(ctx, opNegotiateOffer, rec, msg, didcommmsg.RoleSender)
}

// AcceptOffer answers a received offer with a request.
func (e *Engine) AcceptOffer(ctx context.Context, params *AcceptOfferParams) (*Result, error) {
	res, err := e.acceptOffer(ctx, params)

	return res, e.failed(opAcceptOffer, err)
}

func (e *Engine) acceptOffer(ctx context.Context, params *AcceptOfferParams) (*Result, error) {
	rec, err := e.getRecord(ctx, params.RecordID)
	if err != nil {
		return nil, err
	}

	if err = assertState(rec, opAcceptOffer); err != nil {
		return nil, err
	}

	offer, err := e.findMessage(rec.ID, KindOffer, didcommmsg.RoleReceiver)
	if err != nil {
		return nil, err
	}

	if offer == nil {
		return nil, fmt.Errorf("%w: no offer logged for exchange %s", ErrRecordNotFound, rec.ID)
	}

	proposal, err := e.findMessage(rec.ID, KindProposal, didcommmsg.RoleSender)
	if err != nil {
		return nil, err
	}

	plugins, err := e.coord.plugins(params.Formats, offer)
	if err != nil {
		return nil, err
	}

	msg, err := e.coord.build(ctx, &buildParams{
		kind:     KindRequest,
		rec:      rec,
		plugins:  plugins,
		formats:  params.Formats,
		comment:  params.Comment,
		proposal: proposal,
		offer:    offer,
		required: offer,
	})
	if err != nil {
		return nil, err
	}

	overrideAutoAccept(rec, params.AutoAccept)

	return e.commit(ctx, opAcceptOffer, rec, msg, didcommmsg.RoleSender)
}

// DeclineOffer declines a received offer. No message is sent.
func (e *Engine) DeclineOffer(ctx context.Context, recordID string) (*Result, error) {
	rec, err := e.getRecord(ctx, recordID)
	if err != nil {
		return nil, e.failed(opDeclineOffer, err)
	}

	if err = assertState(rec, opDeclineOffer); err != nil {
		return nil, e.failed(opDeclineOffer, err)
	}

	res, err := e.commit(ctx, opDeclineOffer, rec, nil, "")

	return res, e.failed(opDeclineOffer, err)
}

// CreateRequest starts an exchange as holder by requesting a credential.
func (e *Engine) CreateRequest(ctx context.Context, params *CreateRequestParams) (*Result, error) {
	res, err := e.createRequest(ctx, params)

	return res, e.failed(opCreateRequest, err)
}

func (e *Engine) createRequest(ctx context.Context, params *CreateRequestParams) (*Result, error) {
	if e.version == V1 {
		return nil, errV1Request
	}

	plugins, err := e.coord.plugins(params.Formats, nil)
	if err != nil {
		return nil, err
	}

	rec := e.newRecord(credentialexchange.RoleHolder, params.ConnectionID, params.ParentThreadID, params.AutoAccept)
	rec.ThreadID = rec.ID

	msg, err := e.coord.build(ctx, &buildParams{
		kind:      KindRequest,
		messageID: rec.ThreadID,
		rec:       rec,
		plugins:   plugins,
		formats:   params.Formats,
		comment:   params.Comment,
	})
	if err != nil {
		return nil, err
	}

	return e.commit(ctx, opCreateRequest, rec, msg, didcommmsg.RoleSender)
}

// ProcessCredential handles an issued credential received by the holder. Every plugin stores its credential
// and the bindings are added to the exchange.
func (e *Engine) ProcessCredential(ctx context.Context, msg *Message,
	inbound service.InboundContext) (*Result, error) {
	res, err := e.processCredential(ctx, msg, inbound)

	return res, e.failed(opProcessCredential, err)
}

func (e *Engine) processCredential(ctx context.Context, msg *Message,
	inbound service.InboundContext) (*Result, error) {
	if err := expectKind(msg, KindCredential); err != nil {
		return nil, err
	}

	rec, err := e.findByThread(ctx, msg.ThreadID(), credentialexchange.RoleHolder)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, fmt.Errorf("%w: thread %s", ErrRecordNotFound, msg.ThreadID())
	}

	if err = assertState(rec, opProcessCredential); err != nil {
		return nil, err
	}

	if err = e.authorize(ctx, rec, inbound); err != nil {
		return nil, err
	}

	params := &processParams{rec: rec, msg: msg}

	if params.request, err = e.findMessage(rec.ID, KindRequest, didcommmsg.RoleSender); err != nil {
		return nil, err
	}

	if params.offer, err = e.findMessage(rec.ID, KindOffer, didcommmsg.RoleReceiver); err != nil {
		return nil, err
	}

	params.prior = params.request

	bindings, err := e.coord.process(ctx, params)
	if err != nil {
		return nil, err
	}

	rec.Credentials = append(rec.Credentials, bindings...)

	res, err := e.commit(ctx, opProcessCredential, rec, msg, didcommmsg.RoleReceiver)
	if err != nil && len(bindings) > 0 {
		err = multierr.Append(err, deleteCredentials(context.WithoutCancel(ctx), e.registry, bindings))
	}

	return res, err
}

// AcceptCredential acknowledges a received credential and finishes the exchange.
func (e *Engine) AcceptCredential(ctx context.Context, params *AcceptCredentialParams) (*Result, error) {
	rec, err := e.getRecord(ctx, params.RecordID)
	if err != nil {
		return nil, e.failed(opAcceptCredential, err)
	}

	if err = assertState(rec, opAcceptCredential); err != nil {
		return nil, e.failed(opAcceptCredential, err)
	}

	ack := e.replyMessage(rec, KindAck)
	ack.Status = model.AckStatusOK

	res, err := e.commit(ctx, opAcceptCredential, rec, ack, didcommmsg.RoleSender)

	return res, e.failed(opAcceptCredential, err)
}

func overrideAutoAccept(rec *credentialexchange.Record, mode credentialexchange.AutoAccept) {
	if mode != "" {
		rec.AutoAcceptCredential = mode
	}
}
