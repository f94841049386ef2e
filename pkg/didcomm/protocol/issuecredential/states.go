/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

// stateNameStart is the state of an exchange that has no record yet.
const stateNameStart credentialexchange.State = ""

// the protocol's state.
type state interface {
	// Name of this state.
	Name() credentialexchange.State
	// Whether this state allows transitioning into the next state.
	CanTransitionTo(next state) bool
}

type protocolState struct {
	name credentialexchange.State
	next []credentialexchange.State
}

func (s *protocolState) Name() credentialexchange.State {
	return s.name
}

func (s *protocolState) CanTransitionTo(next state) bool {
	for _, n := range s.next {
		if n == next.Name() {
			return true
		}
	}

	return false
}

// nolint:gochecknoglobals
var states = map[credentialexchange.State]state{
	stateNameStart: &protocolState{name: stateNameStart, next: []credentialexchange.State{
		credentialexchange.StateProposalSent, credentialexchange.StateProposalReceived,
		credentialexchange.StateOfferSent, credentialexchange.StateOfferReceived,
		credentialexchange.StateRequestSent, credentialexchange.StateRequestReceived,
	}},
	credentialexchange.StateProposalSent: &protocolState{name: credentialexchange.StateProposalSent,
		next: []credentialexchange.State{credentialexchange.StateOfferReceived, credentialexchange.StateAbandoned}},
	credentialexchange.StateProposalReceived: &protocolState{name: credentialexchange.StateProposalReceived,
		next: []credentialexchange.State{credentialexchange.StateOfferSent, credentialexchange.StateAbandoned}},
	credentialexchange.StateOfferSent: &protocolState{name: credentialexchange.StateOfferSent,
		next: []credentialexchange.State{
			credentialexchange.StateProposalReceived, credentialexchange.StateRequestReceived,
			credentialexchange.StateAbandoned,
		}},
	credentialexchange.StateOfferReceived: &protocolState{name: credentialexchange.StateOfferReceived,
		next: []credentialexchange.State{
			credentialexchange.StateProposalSent, credentialexchange.StateRequestSent,
			credentialexchange.StateDeclined, credentialexchange.StateAbandoned,
		}},
	credentialexchange.StateRequestSent: &protocolState{name: credentialexchange.StateRequestSent,
		next: []credentialexchange.State{credentialexchange.StateCredentialReceived, credentialexchange.StateAbandoned}},
	credentialexchange.StateRequestReceived: &protocolState{name: credentialexchange.StateRequestReceived,
		next: []credentialexchange.State{credentialexchange.StateCredentialIssued, credentialexchange.StateAbandoned}},
	credentialexchange.StateCredentialIssued: &protocolState{name: credentialexchange.StateCredentialIssued,
		next: []credentialexchange.State{credentialexchange.StateDone, credentialexchange.StateAbandoned}},
	credentialexchange.StateCredentialReceived: &protocolState{name: credentialexchange.StateCredentialReceived,
		next: []credentialexchange.State{credentialexchange.StateDone, credentialexchange.StateAbandoned}},
	credentialexchange.StateDone:      &protocolState{name: credentialexchange.StateDone},
	credentialexchange.StateDeclined:  &protocolState{name: credentialexchange.StateDeclined},
	credentialexchange.StateAbandoned: &protocolState{name: credentialexchange.StateAbandoned},
}

// nolint:gochecknoglobals
var roleStates = map[credentialexchange.Role][]credentialexchange.State{
	credentialexchange.RoleHolder: {
		credentialexchange.StateProposalSent, credentialexchange.StateOfferReceived,
		credentialexchange.StateRequestSent, credentialexchange.StateCredentialReceived,
		credentialexchange.StateDone, credentialexchange.StateDeclined, credentialexchange.StateAbandoned,
	},
	credentialexchange.RoleIssuer: {
		credentialexchange.StateProposalReceived, credentialexchange.StateOfferSent,
		credentialexchange.StateRequestReceived, credentialexchange.StateCredentialIssued,
		credentialexchange.StateDone, credentialexchange.StateAbandoned,
	},
}

func stateByName(name credentialexchange.State) state {
	if s, ok := states[name]; ok {
		return s
	}

	return &protocolState{name: name}
}

func reachable(role credentialexchange.Role, s credentialexchange.State) bool {
	for _, rs := range roleStates[role] {
		if rs == s {
			return true
		}
	}

	return false
}

// operation is a row of the transition table. An empty from list means the operation creates the record.
type operation struct {
	name string
	role credentialexchange.Role
	from []credentialexchange.State
	to   credentialexchange.State
}

// nolint:gochecknoglobals
var (
	opCreateProposal = operation{name: "createProposal", role: credentialexchange.RoleHolder,
		to: credentialexchange.StateProposalSent}
	opProcessProposal = operation{name: "processProposal", role: credentialexchange.RoleIssuer,
		from: []credentialexchange.State{credentialexchange.StateOfferSent}, to: credentialexchange.StateProposalReceived}
	opAcceptProposal = operation{name: "acceptProposal", role: credentialexchange.RoleIssuer,
		from: []credentialexchange.State{credentialexchange.StateProposalReceived}, to: credentialexchange.StateOfferSent}
	opNegotiateProposal = operation{name: "negotiateProposal", role: credentialexchange.RoleIssuer,
		from: []credentialexchange.State{credentialexchange.StateProposalReceived}, to: credentialexchange.StateOfferSent}
	opCreateOffer = operation{name: "createOffer", role: credentialexchange.RoleIssuer,
		to: credentialexchange.StateOfferSent}
	opProcessOffer = operation{name: "processOffer", role: credentialexchange.RoleHolder,
		from: []credentialexchange.State{credentialexchange.StateProposalSent}, to: credentialexchange.StateOfferReceived}
	opNegotiateOffer = operation{name: "negotiateOffer", role: credentialexchange.RoleHolder,
		from: []credentialexchange.State{credentialexchange.StateOfferReceived}, to: credentialexchange.StateProposalSent}
	opAcceptOffer = operation{name: "acceptOffer", role: credentialexchange.RoleHolder,
		from: []credentialexchange.State{credentialexchange.StateOfferReceived}, to: credentialexchange.StateRequestSent}
	opCreateRequest = operation{name: "createRequest", role: credentialexchange.RoleHolder,
		to: credentialexchange.StateRequestSent}
	opProcessRequest = operation{name: "processRequest", role: credentialexchange.RoleIssuer,
		from: []credentialexchange.State{credentialexchange.StateOfferSent}, to: credentialexchange.StateRequestReceived}
	opAcceptRequest = operation{name: "acceptRequest", role: credentialexchange.RoleIssuer,
		from: []credentialexchange.State{credentialexchange.StateRequestReceived},
		to:   credentialexchange.StateCredentialIssued}
	opProcessCredential = operation{name: "processCredential", role: credentialexchange.RoleHolder,
		from: []credentialexchange.State{credentialexchange.StateRequestSent},
		to:   credentialexchange.StateCredentialReceived}
	opAcceptCredential = operation{name: "acceptCredential", role: credentialexchange.RoleHolder,
		from: []credentialexchange.State{credentialexchange.StateCredentialReceived}, to: credentialexchange.StateDone}
	opProcessAck = operation{name: "processAck", role: credentialexchange.RoleIssuer,
		from: []credentialexchange.State{credentialexchange.StateCredentialIssued}, to: credentialexchange.StateDone}
	opDeclineOffer = operation{name: "declineOffer", role: credentialexchange.RoleHolder,
		from: []credentialexchange.State{credentialexchange.StateOfferReceived}, to: credentialexchange.StateDeclined}
)

// assertState checks that rec may run op.
func assertState(rec *credentialexchange.Record, op operation) error {
	for _, s := range op.from {
		if rec.State == s {
			if rec.Role != op.role {
				break
			}

			return nil
		}
	}

	return &StateError{Operation: op.name, Current: rec.State, Expected: op.from}
}

// assertNotTerminal checks that rec may still be abandoned.
func assertNotTerminal(rec *credentialexchange.Record, opName string) error {
	if !rec.State.Terminal() {
		return nil
	}

	var expected []credentialexchange.State

	for _, s := range roleStates[rec.Role] {
		if !s.Terminal() {
			expected = append(expected, s)
		}
	}

	return &StateError{Operation: opName, Current: rec.State, Expected: expected}
}
