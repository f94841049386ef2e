/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"fmt"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/didcommmsg"
)

// ProcessProposal handles a proposal received by the issuer, on a new thread or countering an offer.
func (e *Engine) ProcessProposal(ctx context.Context, msg *Message, inbound service.InboundContext) (*Result, error) {
	res, err := e.processProposal(ctx, msg, inbound)

	return res, e.failed(opProcessProposal, err)
}

func (e *Engine) processProposal(ctx context.Context, msg *Message, inbound service.InboundContext) (*Result, error) {
	if err := expectKind(msg, KindProposal); err != nil {
		return nil, err
	}

	rec, err := e.findByThread(ctx, msg.ThreadID(), credentialexchange.RoleIssuer)
	if err != nil {
		return nil, err
	}

	params := &processParams{msg: msg, proposal: msg}

	if rec == nil {
		if err = e.authorizeNew(ctx, inbound); err != nil {
			return nil, err
		}

		rec = e.newRecord(credentialexchange.RoleIssuer, inbound.ConnectionID, msg.Thread.PID, "")
		rec.ThreadID = msg.ThreadID()
	} else {
		if err = assertState(rec, opProcessProposal); err != nil {
			return nil, err
		}

		if err = e.authorize(ctx, rec, inbound); err != nil {
			return nil, err
		}

		if err = e.countRound(rec); err != nil {
			return nil, err
		}

		if params.prior, err = e.findMessage(rec.ID, KindOffer, didcommmsg.RoleSender); err != nil {
			return nil, err
		}

		params.offer = params.prior
	}

	params.rec = rec

	if _, err = e.coord.process(ctx, params); err != nil {
		return nil, err
	}

	setAttributes(rec, msg)

	return e.commit(ctx, opProcessProposal, rec, msg, didcommmsg.RoleReceiver)
}

// AcceptProposal answers a received proposal with an offer.
func (e *Engine) AcceptProposal(ctx context.Context, params *AcceptProposalParams) (*Result, error) {
	res, err := e.acceptProposal(ctx, params)

	return res, e.failed(opAcceptProposal, err)
}

func (e *Engine) acceptProposal(ctx context.Context, params *AcceptProposalParams) (*Result, error) {
	rec, err := e.getRecord(ctx, params.RecordID)
	if err != nil {
		return nil, err
	}

	if err = assertState(rec, opAcceptProposal); err != nil {
		return nil, err
	}

	proposal, err := e.findMessage(rec.ID, KindProposal, didcommmsg.RoleReceiver)
	if err != nil {
		return nil, err
	}

	if proposal == nil {
		return nil, fmt.Errorf("%w: no proposal logged for exchange %s", ErrRecordNotFound, rec.ID)
	}

	plugins, err := e.coord.plugins(params.Formats, proposal)
	if err != nil {
		return nil, err
	}

	msg, err := e.coord.build(ctx, &buildParams{
		kind:       KindOffer,
		rec:        rec,
		plugins:    plugins,
		formats:    params.Formats,
		attributes: credentialAttributes(params.Attributes, proposal),
		comment:    params.Comment,
		proposal:   proposal,
		required:   proposal,
	})
	if err != nil {
		return nil, err
	}

	setAttributes(rec, msg)
	overrideAutoAccept(rec, params.AutoAccept)

	return e.commit(ctx, opAcceptProposal, rec, msg, didcommmsg.RoleSender)
}

// NegotiateProposal answers a received proposal with an offer that differs from it.
func (e *Engine) NegotiateProposal(ctx context.Context, params *NegotiateProposalParams) (*Result, error) {
	res, err := e.negotiateProposal(ctx, params)

	return res, e.failed(opNegotiateProposal, err)
}

func (e *Engine) negotiateProposal(ctx context.Context, params *NegotiateProposalParams) (*Result, error) {
	rec, err := e.getRecord(ctx, params.RecordID)
	if err != nil {
		return nil, err
	}

	if err = assertState(rec, opNegotiateProposal); err != nil {
		return nil, err
	}

	if rec.ConnectionID == "" {
		return nil, fmt.Errorf("%w: connection-less proposal %s cannot be negotiated", ErrConnectionRequired, rec.ID)
	}

	if err = e.countRound(rec); err != nil {
		return nil, err
	}

	proposal, err := e.findMessage(rec.ID, KindProposal, didcommmsg.RoleReceiver)
	if err != nil {
		return nil, err
	}

	plugins, err := e.coord.plugins(params.Formats, proposal)
	if err != nil {
		return nil, err
	}

	msg, err := e.coord.build(ctx, &buildParams{
		kind:       KindOffer,
		rec:        rec,
		plugins:    plugins,
		formats:    params.Formats,
		attributes: params.Attributes,
		comment:    params.Comment,
		proposal:   proposal,
	})
	if err != nil {
		return nil, err
	}

	setAttributes(rec, msg)
	overrideAutoAccept(rec, params.AutoAccept)

	return e.commit(ctx, opNegotiateProposal, rec, msg, didcommmsg.RoleSender)
}

// CreateOffer starts an exchange as issuer by offering a credential. Without a connection the offer is
// connection-less and the exchange binds to the connection of the first answer.
func (e *Engine) CreateOffer(ctx context.Context, params *CreateOfferParams) (*Result, error) {
	res, err := e.createOffer(ctx, params)

	return res, e.failed(opCreateOffer, err)
}

func (e *Engine) createOffer(ctx context.Context, params *CreateOfferParams) (*Result, error) {
	plugins, err := e.coord.plugins(params.Formats, nil)
	if err != nil {
		return nil, err
	}

	rec := e.newRecord(credentialexchange.RoleIssuer, params.ConnectionID, params.ParentThreadID, params.AutoAccept)
	rec.ThreadID = rec.ID

	msg, err := e.coord.build(ctx, &buildParams{
		kind:       KindOffer,
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

	return e.commit(ctx, opCreateOffer, rec, msg, didcommmsg.RoleSender)
}

// ProcessRequest handles a request received by the issuer, on a new thread or answering an offer.
func (e *Engine) ProcessRequest(ctx context.Context, msg *Message, inbound service.InboundContext) (*Result, error) {
	res, err := e.processRequest(ctx, msg, inbound)

	return res, e.failed(opProcessRequest, err)
}

func (e *Engine) processRequest(ctx context.Context, msg *Message, inbound service.InboundContext) (*Result, error) {
	if err := expectKind(msg, KindRequest); err != nil {
		return nil, err
	}

	rec, err := e.findByThread(ctx, msg.ThreadID(), credentialexchange.RoleIssuer)
	if err != nil {
		return nil, err
	}

	params := &processParams{msg: msg, request: msg}

	if rec == nil {
		if e.version == V1 {
			return nil, errV1Request
		}

		if err = e.authorizeNew(ctx, inbound); err != nil {
			return nil, err
		}

		rec = e.newRecord(credentialexchange.RoleIssuer, inbound.ConnectionID, msg.Thread.PID, "")
		rec.ThreadID = msg.ThreadID()
	} else {
		if err = assertState(rec, opProcessRequest); err != nil {
			return nil, err
		}

		if err = e.authorize(ctx, rec, inbound); err != nil {
			return nil, err
		}

		if params.prior, err = e.findMessage(rec.ID, KindOffer, didcommmsg.RoleSender); err != nil {
			return nil, err
		}

		params.offer = params.prior

		if params.proposal, err = e.findMessage(rec.ID, KindProposal, didcommmsg.RoleReceiver); err != nil {
			return nil, err
		}
	}

	params.rec = rec

	if _, err = e.coord.process(ctx, params); err != nil {
		return nil, err
	}

	return e.commit(ctx, opProcessRequest, rec, msg, didcommmsg.RoleReceiver)
}

// AcceptRequest issues the credential of a received request.
func (e *Engine) AcceptRequest(ctx context.Context, params *AcceptRequestParams) (*Result, error) {
	res, err := e.acceptRequest(ctx, params)

	return res, e.failed(opAcceptRequest, err)
}

func (e *Engine) acceptRequest(ctx context.Context, params *AcceptRequestParams) (*Result, error) {
	rec, err := e.getRecord(ctx, params.RecordID)
	if err != nil {
		return nil, err
	}

	if err = assertState(rec, opAcceptRequest); err != nil {
		return nil, err
	}

	request, err := e.findMessage(rec.ID, KindRequest, didcommmsg.RoleReceiver)
	if err != nil {
		return nil, err
	}

	if request == nil {
		return nil, fmt.Errorf("%w: no request logged for exchange %s", ErrRecordNotFound, rec.ID)
	}

	offer, err := e.findMessage(rec.ID, KindOffer, didcommmsg.RoleSender)
	if err != nil {
		return nil, err
	}

	proposal, err := e.findMessage(rec.ID, KindProposal, didcommmsg.RoleReceiver)
	if err != nil {
		return nil, err
	}

	plugins, err := e.coord.plugins(params.Formats, request)
	if err != nil {
		return nil, err
	}

	msg, err := e.coord.build(ctx, &buildParams{
		kind:     KindCredential,
		rec:      rec,
		plugins:  plugins,
		formats:  params.Formats,
		comment:  params.Comment,
		proposal: proposal,
		offer:    offer,
		request:  request,
		required: request,
	})
	if err != nil {
		return nil, err
	}

	overrideAutoAccept(rec, params.AutoAccept)

	return e.commit(ctx, opAcceptRequest, rec, msg, didcommmsg.RoleSender)
}

// ProcessAck handles the acknowledgement of an issued credential and finishes the exchange.
func (e *Engine) ProcessAck(ctx context.Context, msg *Message, inbound service.InboundContext) (*Result, error) {
	res, err := e.processAck(ctx, msg, inbound)

	return res, e.failed(opProcessAck, err)
}

func (e *Engine) processAck(ctx context.Context, msg *Message, inbound service.InboundContext) (*Result, error) {
	if err := expectKind(msg, KindAck); err != nil {
		return nil, err
	}

	rec, err := e.findByThread(ctx, msg.ThreadID(), credentialexchange.RoleIssuer)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, fmt.Errorf("%w: thread %s", ErrRecordNotFound, msg.ThreadID())
	}

	if err = assertState(rec, opProcessAck); err != nil {
		return nil, err
	}

	if err = e.authorize(ctx, rec, inbound); err != nil {
		return nil, err
	}

	return e.commit(ctx, opProcessAck, rec, msg, didcommmsg.RoleReceiver)
}

// credentialAttributes returns the preview to offer for a proposal.
func credentialAttributes(requested []format.Attribute, proposal *Message) []format.Attribute {
	if requested != nil {
		return requested
	}

	return proposal.Attributes()
}
