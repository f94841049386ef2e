/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"fmt"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

// HandleInbound handles an inbound issuecredential message and returns its thread id.
// When the auto accept policy of the exchange allows it, the answer is sent before HandleInbound returns.
func (c *Client) HandleInbound(ctx context.Context, raw []byte, inbound service.InboundContext) (string, error) {
	v, kind, err := issuecredential.ParseVersion(raw)
	if err != nil {
		return "", err
	}

	e, err := c.engine(v)
	if err != nil {
		return "", err
	}

	msg, err := e.ParseMessage(raw)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", kind, err)
	}

	logger.Debugf("handling inbound %s %s on thread %s", v, kind, msg.ThreadID())

	threadID := msg.ThreadID()

	unlock := c.locks.lock(threadID)
	defer unlock()

	res, err := c.withRetry(ctx, func() (*issuecredential.Result, error) {
		return process(ctx, e, msg, inbound)
	})
	if err != nil {
		return "", fmt.Errorf("handle inbound %s: %w", kind, err)
	}

	reply := destination{myDID: inbound.MyDID, theirDID: inbound.TheirDID}

	if err = c.finish(ctx, res, msg, reply); err != nil {
		return "", err
	}

	if c.autoContinue {
		if err = c.continueExchange(ctx, e, res.Record, reply); err != nil {
			return "", fmt.Errorf("auto-continue after %s: %w", kind, err)
		}
	}

	return threadID, nil
}

func process(ctx context.Context, e *issuecredential.Engine, msg *issuecredential.Message,
	inbound service.InboundContext) (*issuecredential.Result, error) {
	switch msg.Kind {
	case issuecredential.KindProposal:
		return e.ProcessProposal(ctx, msg, inbound)
	case issuecredential.KindOffer:
		return e.ProcessOffer(ctx, msg, inbound)
	case issuecredential.KindRequest:
		return e.ProcessRequest(ctx, msg, inbound)
	case issuecredential.KindCredential:
		return e.ProcessCredential(ctx, msg, inbound)
	case issuecredential.KindAck:
		return e.ProcessAck(ctx, msg, inbound)
	case issuecredential.KindProblemReport:
		return e.ProcessProblemReport(ctx, msg, inbound)
	default:
		return nil, fmt.Errorf("unexpected %s message", msg.Kind)
	}
}

// continueExchange answers a received message when the auto accept policy allows it.
// The caller holds the lock of the thread.
func (c *Client) continueExchange(ctx context.Context, e *issuecredential.Engine, rec credentialexchange.Record,
	reply destination) error {
	var (
		accept bool
		err    error
		next   func() (*issuecredential.Result, error)
	)

	switch rec.State {
	case credentialexchange.StateProposalReceived:
		accept, err = e.ShouldAutoRespondToProposal(ctx, &rec)
		next = func() (*issuecredential.Result, error) {
			return e.AcceptProposal(ctx, &issuecredential.AcceptProposalParams{RecordID: rec.ID})
		}
	case credentialexchange.StateOfferReceived:
		accept, err = e.ShouldAutoRespondToOffer(ctx, &rec)
		next = func() (*issuecredential.Result, error) {
			return e.AcceptOffer(ctx, &issuecredential.AcceptOfferParams{RecordID: rec.ID})
		}
	case credentialexchange.StateRequestReceived:
		accept, err = e.ShouldAutoRespondToRequest(ctx, &rec)
		next = func() (*issuecredential.Result, error) {
			return e.AcceptRequest(ctx, &issuecredential.AcceptRequestParams{RecordID: rec.ID})
		}
	case credentialexchange.StateCredentialReceived:
		accept, err = e.ShouldAutoRespondToCredential(ctx, &rec)
		next = func() (*issuecredential.Result, error) {
			return e.AcceptCredential(ctx, &issuecredential.AcceptCredentialParams{RecordID: rec.ID})
		}
	default:
		return nil
	}

	if err != nil || !accept {
		return err
	}

	logger.Infof("auto accepting exchange %s in state %s", rec.ID, rec.State)

	res, err := c.withRetry(ctx, next)
	if err != nil {
		return err
	}

	return c.finish(ctx, res, nil, reply)
}
