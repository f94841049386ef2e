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
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

// counterProposal runs an offer and a counter proposal with the given preview value and returns the
// issuer's record after receiving the proposal.
func counterProposal(t *testing.T, o agentOpts, name string) (*testAgent, credentialexchange.Record) {
	t.Helper()

	ctx := context.Background()
	holder, issuer := newPair(t, o)

	offer, err := issuer.engine.CreateOffer(ctx, &CreateOfferParams{
		ConnectionID: issuerConn,
		Formats:      FormatSelection{format.KeyJWTVC: jwtDetail("Alice")},
		Attributes:   nameAttribute("Alice"),
	})
	require.NoError(t, err)

	received := mustDeliver(ctx, t, holder, offer)

	proposal, err := holder.engine.NegotiateOffer(ctx, &NegotiateOfferParams{
		RecordID:   received.Record.ID,
		Formats:    FormatSelection{format.KeyJWTVC: jwtDetail("Alice")},
		Attributes: nameAttribute(name),
	})
	require.NoError(t, err)

	return issuer, mustDeliver(ctx, t, issuer, proposal).Record
}

func TestEngine_ShouldAutoRespondToProposal(t *testing.T) {
	ctx := context.Background()

	t.Run("always accepts mismatched previews", func(t *testing.T) {
		issuer, rec := counterProposal(t, agentOpts{
			opts: []Opt{WithAutoAccept(credentialexchange.AutoAcceptAlways)},
		}, "Bob")

		ok, err := issuer.engine.ShouldAutoRespondToProposal(ctx, &rec)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("content approved rejects one differing value", func(t *testing.T) {
		metrics := &countingMetrics{}

		issuer, rec := counterProposal(t, agentOpts{
			opts: []Opt{WithAutoAccept(credentialexchange.AutoAcceptContentApproved), WithMetrics(metrics)},
		}, "Alicia")

		ok, err := issuer.engine.ShouldAutoRespondToProposal(ctx, &rec)
		require.NoError(t, err)
		require.False(t, ok)
		require.False(t, metrics.accepted[KindProposal])
	})

	t.Run("content approved accepts the same content", func(t *testing.T) {
		metrics := &countingMetrics{}

		issuer, rec := counterProposal(t, agentOpts{
			opts: []Opt{WithAutoAccept(credentialexchange.AutoAcceptContentApproved), WithMetrics(metrics)},
		}, "Alice")

		ok, err := issuer.engine.ShouldAutoRespondToProposal(ctx, &rec)
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, metrics.accepted[KindProposal])
	})

	t.Run("record mode overrides the engine default", func(t *testing.T) {
		issuer, rec := counterProposal(t, agentOpts{
			opts: []Opt{WithAutoAccept(credentialexchange.AutoAcceptAlways)},
		}, "Alice")

		rec.AutoAcceptCredential = credentialexchange.AutoAcceptNever

		ok, err := issuer.engine.ShouldAutoRespondToProposal(ctx, &rec)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("never by default", func(t *testing.T) {
		issuer, rec := counterProposal(t, agentOpts{}, "Alice")

		ok, err := issuer.engine.ShouldAutoRespondToProposal(ctx, &rec)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("content approved without an offer sent", func(t *testing.T) {
		holder, issuer := newPair(t, agentOpts{
			opts: []Opt{WithAutoAccept(credentialexchange.AutoAcceptContentApproved)},
		})

		proposal, err := holder.engine.CreateProposal(ctx, &CreateProposalParams{
			ConnectionID: holderConn,
			Formats:      FormatSelection{format.KeyJWTVC: jwtDetail("Alice")},
		})
		require.NoError(t, err)

		rec := mustDeliver(ctx, t, issuer, proposal).Record

		ok, err := issuer.engine.ShouldAutoRespondToProposal(ctx, &rec)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestEngine_ShouldAutoRespond_ContentApprovedFlow(t *testing.T) {
	ctx := context.Background()
	o := agentOpts{opts: []Opt{WithAutoAccept(credentialexchange.AutoAcceptContentApproved)}}
	holder, issuer := newPair(t, o)

	proposal, err := holder.engine.CreateProposal(ctx, &CreateProposalParams{
		ConnectionID: holderConn,
		Formats:      FormatSelection{format.KeyJWTVC: jwtDetail("Alice")},
		Attributes:   nameAttribute("Alice"),
	})
	require.NoError(t, err)

	issuerRec := mustDeliver(ctx, t, issuer, proposal)

	offer, err := issuer.engine.AcceptProposal(ctx, &AcceptProposalParams{RecordID: issuerRec.Record.ID})
	require.NoError(t, err)

	holderRec := mustDeliver(ctx, t, holder, offer).Record

	ok, err := holder.engine.ShouldAutoRespondToOffer(ctx, &holderRec)
	require.NoError(t, err)
	require.True(t, ok)

	request, err := holder.engine.AcceptOffer(ctx, &AcceptOfferParams{RecordID: holderRec.ID})
	require.NoError(t, err)

	issuerRecord := mustDeliver(ctx, t, issuer, request).Record

	ok, err = issuer.engine.ShouldAutoRespondToRequest(ctx, &issuerRecord)
	require.NoError(t, err)
	require.True(t, ok)

	credential, err := issuer.engine.AcceptRequest(ctx, &AcceptRequestParams{RecordID: issuerRecord.ID})
	require.NoError(t, err)

	holderRec = mustDeliver(ctx, t, holder, credential).Record

	ok, err = holder.engine.ShouldAutoRespondToCredential(ctx, &holderRec)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSamePreview(t *testing.T) {
	a := &PreviewCredential{Attributes: []format.Attribute{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}}
	b := &PreviewCredential{Attributes: []format.Attribute{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}}}
	c := &PreviewCredential{Attributes: []format.Attribute{{Name: "b", Value: "3"}, {Name: "a", Value: "1"}}}

	require.True(t, samePreview(a, b))
	require.False(t, samePreview(a, c))
	require.False(t, samePreview(a, nil))
	require.True(t, samePreview(nil, nil))
	require.Equal(t, "a", a.Attributes[0].Name, "sorting must not reorder the message")
	require.Equal(t, "b", b.Attributes[0].Name, "sorting must not reorder the message")
}
