/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"errors"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

type actionOpts struct {
	version issuecredential.Version
	dest    destination
}

// ActionOpt configures one client action.
type ActionOpt func(o *actionOpts)

// WithProtocolVersion selects the protocol version of a new exchange.
func WithProtocolVersion(v issuecredential.Version) ActionOpt {
	return func(o *actionOpts) {
		o.version = v
	}
}

// WithConnectionless sends the message of an exchange that has no connection to theirDID.
func WithConnectionless(myDID, theirDID string) ActionOpt {
	return func(o *actionOpts) {
		o.dest = destination{myDID: myDID, theirDID: theirDID}
	}
}

func applyActionOpts(opts []ActionOpt) *actionOpts {
	o := &actionOpts{}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// start runs an operation that creates an exchange.
func (c *Client) start(ctx context.Context, opts []ActionOpt,
	op func(e *issuecredential.Engine) (*issuecredential.Result, error)) (credentialexchange.Record, error) {
	o := applyActionOpts(opts)

	e, err := c.engine(o.version)
	if err != nil {
		return credentialexchange.Record{}, err
	}

	res, err := op(e)
	if err != nil {
		return credentialexchange.Record{}, err
	}

	if err = c.finish(ctx, res, nil, o.dest); err != nil {
		return res.Record, err
	}

	return res.Record, nil
}

// act runs an operation on a stored exchange while holding the lock of its thread.
func (c *Client) act(ctx context.Context, recordID string, opts []ActionOpt,
	op func(e *issuecredential.Engine) (*issuecredential.Result, error)) (credentialexchange.Record, error) {
	o := applyActionOpts(opts)

	e, rec, err := c.engineFor(ctx, recordID)
	if err != nil {
		return credentialexchange.Record{}, err
	}

	unlock := c.locks.lock(rec.ThreadID)
	defer unlock()

	res, err := c.withRetry(ctx, func() (*issuecredential.Result, error) {
		return op(e)
	})
	if err != nil {
		return credentialexchange.Record{}, err
	}

	if err = c.finish(ctx, res, nil, o.dest); err != nil {
		return res.Record, err
	}

	return res.Record, nil
}

// SendProposal is used by the Holder to start an exchange with a proposal.
func (c *Client) SendProposal(ctx context.Context, params *issuecredential.CreateProposalParams,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	if params == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	return c.start(ctx, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.CreateProposal(ctx, params)
	})
}

// SendOffer is used by the Issuer to start an exchange with an offer.
func (c *Client) SendOffer(ctx context.Context, params *issuecredential.CreateOfferParams,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	if params == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	return c.start(ctx, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.CreateOffer(ctx, params)
	})
}

// SendRequest is used by the Holder to start an exchange with a request.
func (c *Client) SendRequest(ctx context.Context, params *issuecredential.CreateRequestParams,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	if params == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	return c.start(ctx, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.CreateRequest(ctx, params)
	})
}

// AcceptProposal is used when the Issuer is willing to accept the proposal.
func (c *Client) AcceptProposal(ctx context.Context, params *issuecredential.AcceptProposalParams,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	if params == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	return c.act(ctx, params.RecordID, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.AcceptProposal(ctx, params)
	})
}

// NegotiateProposal is used when the Issuer answers a proposal with a different offer.
func (c *Client) NegotiateProposal(ctx context.Context, params *issuecredential.NegotiateProposalParams,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	if params == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	return c.act(ctx, params.RecordID, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.NegotiateProposal(ctx, params)
	})
}

// AcceptOffer is used when the Holder is willing to accept the offer.
func (c *Client) AcceptOffer(ctx context.Context, params *issuecredential.AcceptOfferParams,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	if params == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	return c.act(ctx, params.RecordID, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.AcceptOffer(ctx, params)
	})
}

// NegotiateOffer is used when the Holder answers an offer with a counter proposal.
func (c *Client) NegotiateOffer(ctx context.Context, params *issuecredential.NegotiateOfferParams,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	if params == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	return c.act(ctx, params.RecordID, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.NegotiateOffer(ctx, params)
	})
}

// DeclineOffer is used when the Holder does not want to accept the offer. Nothing is sent.
func (c *Client) DeclineOffer(ctx context.Context, recordID string) (credentialexchange.Record, error) {
	return c.act(ctx, recordID, nil, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.DeclineOffer(ctx, recordID)
	})
}

// AcceptRequest is used when the Issuer is willing to issue the requested credential.
func (c *Client) AcceptRequest(ctx context.Context, params *issuecredential.AcceptRequestParams,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	if params == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	return c.act(ctx, params.RecordID, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.AcceptRequest(ctx, params)
	})
}

// AcceptCredential is used when the Holder keeps the issued credential and acknowledges it.
func (c *Client) AcceptCredential(ctx context.Context, recordID string,
	opts ...ActionOpt) (credentialexchange.Record, error) {
	return c.act(ctx, recordID, opts, func(e *issuecredential.Engine) (*issuecredential.Result, error) {
		return e.AcceptCredential(ctx, &issuecredential.AcceptCredentialParams{RecordID: recordID})
	})
}

// SendProblemReport tells the counterparty that this agent abandons the exchange. The local record is not
// changed.
func (c *Client) SendProblemReport(ctx context.Context, recordID, text string, opts ...ActionOpt) error {
	o := applyActionOpts(opts)

	e, rec, err := c.engineFor(ctx, recordID)
	if err != nil {
		return err
	}

	unlock := c.locks.lock(rec.ThreadID)
	defer unlock()

	report, err := e.CreateProblemReport(ctx, recordID, text)
	if err != nil {
		return err
	}

	return c.send(ctx, &issuecredential.Result{Record: *rec, Message: report}, o.dest)
}

// ProcessRevocationNotification records that the issuer revoked a credential received earlier.
func (c *Client) ProcessRevocationNotification(ctx context.Context,
	notice *issuecredential.RevocationNotice) (credentialexchange.Record, error) {
	if notice == nil {
		return credentialexchange.Record{}, errEmptyParams
	}

	var (
		res *issuecredential.Result
		err error
	)

	for _, v := range c.Versions() {
		res, err = c.withRetry(ctx, func() (*issuecredential.Result, error) {
			return c.engines[v].ProcessRevocationNotification(ctx, notice)
		})
		if !errors.Is(err, issuecredential.ErrRecordNotFound) {
			break
		}
	}

	if err != nil {
		return credentialexchange.Record{}, err
	}

	return res.Record, c.publish(ctx, res, nil)
}

// GetRecord returns a snapshot of an exchange.
func (c *Client) GetRecord(ctx context.Context, recordID string) (credentialexchange.Record, error) {
	e, _, err := c.engineFor(ctx, recordID)
	if err != nil {
		return credentialexchange.Record{}, err
	}

	return e.GetRecord(ctx, recordID)
}

// FindRecords returns the exchanges of every protocol version that match q.
func (c *Client) FindRecords(ctx context.Context, q credentialexchange.Query) ([]credentialexchange.Record, error) {
	var all []credentialexchange.Record

	for _, v := range c.Versions() {
		recs, err := c.engines[v].FindRecords(ctx, q)
		if err != nil {
			return nil, err
		}

		all = append(all, recs...)
	}

	return all, nil
}

// GetFormatData returns the decoded format payloads of an exchange.
func (c *Client) GetFormatData(ctx context.Context, recordID string) (*issuecredential.FormatData, error) {
	e, _, err := c.engineFor(ctx, recordID)
	if err != nil {
		return nil, err
	}

	return e.GetFormatData(ctx, recordID)
}

// Delete removes an exchange, by default together with its credentials and messages.
func (c *Client) Delete(ctx context.Context, recordID string, opts ...issuecredential.DeleteOpt) error {
	e, rec, err := c.engineFor(ctx, recordID)
	if err != nil {
		return err
	}

	unlock := c.locks.lock(rec.ThreadID)
	defer unlock()

	return e.Delete(ctx, recordID, opts...)
}
