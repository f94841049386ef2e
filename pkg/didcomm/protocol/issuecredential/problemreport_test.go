/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/model"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/didcommmsg"
)

func TestEngine_ProblemReport(t *testing.T) {
	ctx := context.Background()
	holder, issuer := newPair(t, agentOpts{})

	offer, err := issuer.engine.CreateOffer(ctx, &CreateOfferParams{
		ConnectionID: issuerConn,
		Formats:      FormatSelection{format.KeyJWTVC: jwtDetail("Alice")},
	})
	require.NoError(t, err)

	received := mustDeliver(ctx, t, holder, offer)

	t.Run("unknown thread", func(t *testing.T) {
		report := &Message{
			Version:     V2,
			Kind:        KindProblemReport,
			ID:          "report-1",
			Thread:      decoratorThread("unknown-thread"),
			Description: &model.Code{Code: "issuance-abandoned", En: "gone"},
		}

		_, err := holder.engine.ProcessProblemReport(ctx, report, holder.inbound)
		require.ErrorIs(t, err, ErrRecordNotFound)

		recs, err := holder.engine.FindRecords(ctx, credentialexchange.Query{})
		require.NoError(t, err)
		require.Len(t, recs, 1)
	})

	report, err := issuer.engine.CreateProblemReport(ctx, offer.Record.ID, "offer withdrawn")
	require.NoError(t, err)
	require.Equal(t, KindProblemReport, report.Kind)
	require.Equal(t, offer.Record.ThreadID, report.ThreadID())
	require.Equal(t, "issuance-abandoned", report.Description.Code)

	unchanged, err := issuer.engine.GetRecord(ctx, offer.Record.ID)
	require.NoError(t, err)
	require.Equal(t, credentialexchange.StateOfferSent, unchanged.State)

	logged, err := issuer.messages.Find(offer.Record.ID, string(KindProblemReport), didcommmsg.RoleSender)
	require.NoError(t, err)
	require.NotNil(t, logged)

	res := mustDeliver(ctx, t, holder, &Result{Message: report})
	require.Equal(t, received.Record.ID, res.Record.ID)
	require.Equal(t, credentialexchange.StateAbandoned, res.Record.State)
	require.Equal(t, credentialexchange.StateOfferReceived, res.Events[0].PreviousState)
	require.Equal(t, "issuance-abandoned: offer withdrawn", res.Record.ErrorMessage)
	require.Nil(t, res.Message)

	t.Run("terminal exchange", func(t *testing.T) {
		_, err := deliver(ctx, t, holder, &Result{Message: report})
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("other connection", func(t *testing.T) {
		_, err := issuer.engine.ProcessProblemReport(ctx, report, holder.inbound)
		require.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestEngine_ProblemReportFromEveryState(t *testing.T) {
	ctx := context.Background()

	for _, s := range []credentialexchange.State{
		credentialexchange.StateProposalSent, credentialexchange.StateOfferReceived,
		credentialexchange.StateRequestSent, credentialexchange.StateCredentialReceived,
	} {
		t.Run(string(s), func(t *testing.T) {
			holder, _ := newPair(t, agentOpts{})

			rec := &credentialexchange.Record{
				ID:              "ex-" + string(s),
				ThreadID:        "thread-" + string(s),
				ConnectionID:    holderConn,
				ProtocolVersion: string(V2),
				Role:            credentialexchange.RoleHolder,
				State:           s,
			}
			require.NoError(t, holder.records.Save(ctx, rec))

			report := &Message{
				Version:     V2,
				Kind:        KindProblemReport,
				ID:          "report-" + string(s),
				Thread:      decoratorThread(rec.ThreadID),
				Description: &model.Code{Code: "e.p.xyz", En: "failed"},
			}

			res, err := holder.engine.ProcessProblemReport(ctx, report, holder.inbound)
			require.NoError(t, err)
			require.Equal(t, credentialexchange.StateAbandoned, res.Record.State)
			require.Equal(t, "e.p.xyz: failed", res.Record.ErrorMessage)
		})
	}
}

func TestEngine_ProblemReportWithoutText(t *testing.T) {
	ctx := context.Background()
	holder, _ := newPair(t, agentOpts{})

	rec := &credentialexchange.Record{
		ID:              "ex-1",
		ThreadID:        "thread-1",
		ConnectionID:    holderConn,
		ProtocolVersion: string(V2),
		Role:            credentialexchange.RoleHolder,
		State:           credentialexchange.StateRequestSent,
	}
	require.NoError(t, holder.records.Save(ctx, rec))

	res, err := holder.engine.ProcessProblemReport(ctx, &Message{
		Version:     V2,
		Kind:        KindProblemReport,
		ID:          "report-1",
		Thread:      decoratorThread(rec.ThreadID),
		Description: &model.Code{Code: "e.p.xyz"},
	}, holder.inbound)
	require.NoError(t, err)
	require.Equal(t, credentialexchange.StateAbandoned, res.Record.State)
	require.Equal(t, "e.p.xyz: ", res.Record.ErrorMessage)
}
