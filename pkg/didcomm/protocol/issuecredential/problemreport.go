/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"fmt"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/model"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/didcommmsg"
)

const opNameProblemReport = "processProblemReport"

// ProcessProblemReport abandons the exchange the report refers to. Reports on unknown threads create nothing.
func (e *Engine) ProcessProblemReport(ctx context.Context, msg *Message,
	inbound service.InboundContext) (*Result, error) {
	res, err := e.processProblemReport(ctx, msg, inbound)
	if err != nil {
		e.metrics.Failure(e.version, opNameProblemReport)
	}

	return res, err
}

func (e *Engine) processProblemReport(ctx context.Context, msg *Message,
	inbound service.InboundContext) (*Result, error) {
	if err := expectKind(msg, KindProblemReport); err != nil {
		return nil, err
	}

	recs, err := e.records.FindByQuery(ctx, credentialexchange.Query{ThreadID: msg.ThreadID()})
	if err != nil {
		return nil, err
	}

	var matches []*credentialexchange.Record

	for _, rec := range recs {
		if rec.ProtocolVersion != string(e.version) {
			continue
		}

		if rec.ConnectionID == "" || inbound.ConnectionID == "" || rec.ConnectionID == inbound.ConnectionID {
			matches = append(matches, rec)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: thread %s", ErrRecordNotFound, msg.ThreadID())
	case 1:
	default:
		return nil, fmt.Errorf("%d exchanges on thread %s match the problem report", len(matches), msg.ThreadID())
	}

	rec := matches[0]

	if err = assertNotTerminal(rec, opNameProblemReport); err != nil {
		return nil, err
	}

	if err = e.authorize(ctx, rec, inbound); err != nil {
		return nil, err
	}

	if msg.Description != nil {
		rec.ErrorMessage = msg.Description.String()
	}

	op := operation{name: opNameProblemReport, role: rec.Role, from: []credentialexchange.State{rec.State},
		to: credentialexchange.StateAbandoned}

	return e.commit(ctx, op, rec, msg, didcommmsg.RoleReceiver)
}

// CreateProblemReport builds a report abandoning the exchange. The state of the exchange is not changed.
func (e *Engine) CreateProblemReport(ctx context.Context, recordID, text string) (*Message, error) {
	rec, err := e.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	msg := e.replyMessage(rec, KindProblemReport)
	msg.Description = &model.Code{Code: problemCodeAbandon, En: text}

	if err = e.logMessage(rec.ID, msg, didcommmsg.RoleSender); err != nil {
		return nil, err
	}

	logger.Debugf("exchange %s thread %s: problem report created", rec.ID, rec.ThreadID)

	return msg, nil
}
