/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

// nolint:gochecknoglobals
var allStates = []credentialexchange.State{
	stateNameStart,
	credentialexchange.StateProposalSent, credentialexchange.StateProposalReceived,
	credentialexchange.StateOfferSent, credentialexchange.StateOfferReceived,
	credentialexchange.StateRequestSent, credentialexchange.StateRequestReceived,
	credentialexchange.StateCredentialIssued, credentialexchange.StateCredentialReceived,
	credentialexchange.StateDone, credentialexchange.StateDeclined, credentialexchange.StateAbandoned,
}

// nolint:gochecknoglobals
var allOperations = []operation{
	opCreateProposal, opProcessProposal, opAcceptProposal, opNegotiateProposal, opCreateOffer,
	opProcessOffer, opNegotiateOffer, opAcceptOffer, opCreateRequest, opProcessRequest, opAcceptRequest,
	opProcessCredential, opAcceptCredential, opProcessAck, opDeclineOffer,
}

func TestTransitionTable(t *testing.T) {
	for _, op := range allOperations {
		t.Run(op.name, func(t *testing.T) {
			require.True(t, reachable(op.role, op.to), "%s is not a %s state", op.to, op.role)

			if len(op.from) == 0 {
				require.True(t, stateByName(stateNameStart).CanTransitionTo(stateByName(op.to)))
			}

			for _, from := range op.from {
				require.True(t, reachable(op.role, from))
				require.True(t, stateByName(from).CanTransitionTo(stateByName(op.to)),
					"%s -> %s is not an edge", from, op.to)
			}

			for _, role := range []credentialexchange.Role{credentialexchange.RoleHolder, credentialexchange.RoleIssuer} {
				for _, s := range allStates {
					err := assertState(&credentialexchange.Record{Role: role, State: s}, op)

					if role == op.role && contains(op.from, s) {
						require.NoError(t, err)

						continue
					}

					require.ErrorIs(t, err, ErrInvalidState)

					var stateErr *StateError
					require.True(t, errors.As(err, &stateErr))
					require.Equal(t, s, stateErr.Current)
					require.Equal(t, op.name, stateErr.Operation)
				}
			}
		})
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range allStates {
		next := 0

		for _, n := range allStates {
			if stateByName(s).CanTransitionTo(stateByName(n)) {
				next++
			}
		}

		if s.Terminal() {
			require.Zero(t, next, "%s is terminal", s)

			continue
		}

		require.NotZero(t, next, "%s is not terminal", s)

		if s != stateNameStart {
			require.True(t, stateByName(s).CanTransitionTo(stateByName(credentialexchange.StateAbandoned)),
				"%s cannot be abandoned", s)
		}
	}

	t.Run("declined is holder only", func(t *testing.T) {
		require.True(t, reachable(credentialexchange.RoleHolder, credentialexchange.StateDeclined))
		require.False(t, reachable(credentialexchange.RoleIssuer, credentialexchange.StateDeclined))
	})

	t.Run("problem report on terminal exchange", func(t *testing.T) {
		err := assertNotTerminal(&credentialexchange.Record{
			Role:  credentialexchange.RoleIssuer,
			State: credentialexchange.StateDone,
		}, "processProblemReport")
		require.ErrorIs(t, err, ErrInvalidState)
		require.Contains(t, err.Error(), `current state is "done", expected proposal-received or offer-sent`)

		require.NoError(t, assertNotTerminal(&credentialexchange.Record{
			Role:  credentialexchange.RoleHolder,
			State: credentialexchange.StateRequestSent,
		}, "processProblemReport"))
	})
}

func TestStateByName_Unknown(t *testing.T) {
	s := stateByName("bogus")
	require.Equal(t, credentialexchange.State("bogus"), s.Name())
	require.False(t, s.CanTransitionTo(stateByName(credentialexchange.StateAbandoned)))
}

func contains(states []credentialexchange.State, s credentialexchange.State) bool {
	for _, v := range states {
		if v == s {
			return true
		}
	}

	return false
}
