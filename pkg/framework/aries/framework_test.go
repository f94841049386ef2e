/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package aries

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format/jwtvc"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/dispatcher/outbound"
	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/transport"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/connection"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

const (
	holderDID = "did:example:holder"
	issuerDID = "did:example:issuer"
	waitFor   = 5 * time.Second
)

// memTransport hands envelopes to the inbound handler registered for their endpoint.
type memTransport struct {
	mu       sync.Mutex
	handlers map[string]transport.InboundMessageHandler
	errs     chan error
}

func newMemTransport() *memTransport {
	return &memTransport{handlers: map[string]transport.InboundMessageHandler{}, errs: make(chan error, 16)}
}

func (m *memTransport) register(endpoint string, h transport.InboundMessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[endpoint] = h
}

func (m *memTransport) Send(_ context.Context, data []byte, destination string) error {
	m.mu.Lock()
	h, ok := m.handlers[destination]
	m.mu.Unlock()

	if !ok {
		return errors.New("unknown destination " + destination)
	}

	env := &transport.Envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return err
	}

	go func() {
		if err := h(context.Background(), env); err != nil {
			m.errs <- err
		}
	}()

	return nil
}

func (m *memTransport) Accept(destination string) bool {
	return strings.HasPrefix(destination, "mem://")
}

var endpoints = outbound.StaticEndpoints{
	holderDID: "mem://holder",
	issuerDID: "mem://issuer",
}

func newAgent(t *testing.T, tr *memTransport, myDID, theirDID, connID string, opts ...Option) *Aries {
	t.Helper()

	opts = append([]Option{
		WithOutboundTransports(tr),
		WithEndpointResolver(endpoints),
		WithFormatPlugins(func(p storage.Provider) (format.Plugin, error) {
			return jwtvc.New(p)
		}),
	}, opts...)

	a, err := New(opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, a.Close())
	})

	require.NoError(t, a.ConnectionRecorder().SaveConnectionRecord(&connection.Record{
		ConnectionID: connID,
		State:        connection.StateCompleted,
		MyDID:        myDID,
		TheirDID:     theirDID,
	}))

	tr.register(endpoints[myDID], a.InboundMessageHandler())

	return a
}

func waitState(t *testing.T, events chan service.StateMsg, errs chan error, state credentialexchange.State) {
	t.Helper()

	timeout := time.After(waitFor)

	for {
		select {
		case msg := <-events:
			if msg.StateID == string(state) {
				return
			}
		case err := <-errs:
			require.NoError(t, err)
		case <-timeout:
			require.FailNow(t, "timeout waiting for state "+string(state))
		}
	}
}

func TestFramework(t *testing.T) {
	t.Run("test framework new - with default", func(t *testing.T) {
		a, err := New()
		require.NoError(t, err)
		require.NotNil(t, a.IssueCredentialClient())
		require.Equal(t, []protocol.Version{protocol.V1, protocol.V2}, a.IssueCredentialClient().Versions())

		ctx, err := a.Context()
		require.NoError(t, err)
		require.Len(t, ctx.Engines(), 2)
		require.ElementsMatch(t, []format.Key{format.KeyJWTVC, format.KeyJSONLD}, ctx.FormatRegistry().Keys())

		require.NoError(t, a.Close())
	})

	t.Run("test framework new - with options", func(t *testing.T) {
		a, err := New(
			WithStoreProvider(mem.NewProvider()),
			WithProtocolVersions(protocol.V1),
			WithRecordCacheSize(0),
			WithRequestTTL(time.Minute),
			WithEngineOptions(protocol.WithMaxNegotiationRounds(2)),
		)
		require.NoError(t, err)
		require.Equal(t, []protocol.Version{protocol.V1}, a.IssueCredentialClient().Versions())
		require.NoError(t, a.Close())
	})

	t.Run("test framework new - option error", func(t *testing.T) {
		_, err := New(WithProtocolVersions("v3"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported protocol version")

		_, err = New(WithRecordCacheSize(-1))
		require.Error(t, err)
	})

	t.Run("test framework new - format plugin error", func(t *testing.T) {
		_, err := New(WithFormatPlugins(func(storage.Provider) (format.Plugin, error) {
			return nil, errors.New("plugin error")
		}))
		require.Error(t, err)
		require.Contains(t, err.Error(), "plugin error")
	})

	t.Run("test framework new - store provider error", func(t *testing.T) {
		_, err := New(WithStoreProvider(&failingProvider{Provider: mem.NewProvider()}))
		require.Error(t, err)
		require.Contains(t, err.Error(), "open store failed")
	})
}

func TestFramework_Exchange(t *testing.T) {
	tr := newMemTransport()

	holder := newAgent(t, tr, holderDID, issuerDID, "holder-conn")
	issuer := newAgent(t, tr, issuerDID, holderDID, "issuer-conn",
		WithEngineOptions(protocol.WithAutoAccept(credentialexchange.AutoAcceptAlways)))

	holderEvents := make(chan service.StateMsg, 32)
	require.NoError(t, holder.IssueCredentialClient().RegisterMsgEvent(holderEvents))

	issuerEvents := make(chan service.StateMsg, 32)
	require.NoError(t, issuer.IssueCredentialClient().RegisterMsgEvent(issuerEvents))

	ctx := context.Background()

	rec, err := holder.IssueCredentialClient().SendProposal(ctx, &protocol.CreateProposalParams{
		ConnectionID: "holder-conn",
		Formats: protocol.FormatSelection{format.KeyJWTVC: format.Options{
			"credential": map[string]interface{}{
				"@context":          []interface{}{"https://www.w3.org/2018/credentials/v1"},
				"type":              []interface{}{"VerifiableCredential"},
				"credentialSubject": map[string]interface{}{"id": holderDID, "name": "Alice"},
			},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, credentialexchange.StateProposalSent, rec.State)

	// the issuer accepts everything, the holder accepts the offer and the credential by hand
	waitState(t, holderEvents, tr.errs, credentialexchange.StateOfferReceived)

	_, err = holder.IssueCredentialClient().AcceptOffer(ctx, &protocol.AcceptOfferParams{RecordID: rec.ID})
	require.NoError(t, err)

	waitState(t, holderEvents, tr.errs, credentialexchange.StateCredentialReceived)

	_, err = holder.IssueCredentialClient().AcceptCredential(ctx, rec.ID)
	require.NoError(t, err)

	waitState(t, issuerEvents, tr.errs, credentialexchange.StateDone)

	stored, err := holder.IssueCredentialClient().GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, credentialexchange.StateDone, stored.State)
	require.Len(t, stored.Credentials, 1)

	issued, err := issuer.IssueCredentialClient().FindRecords(ctx, credentialexchange.Query{ThreadID: rec.ThreadID})
	require.NoError(t, err)
	require.Len(t, issued, 1)
	require.Equal(t, "issuer-conn", issued[0].ConnectionID)
	require.Equal(t, credentialexchange.RoleIssuer, issued[0].Role)
}

func TestFramework_InboundMessageHandler(t *testing.T) {
	a, err := New(WithEndpointResolver(endpoints))
	require.NoError(t, err)

	defer func() {
		require.NoError(t, a.Close())
	}()

	err = a.InboundMessageHandler()(context.Background(), &transport.Envelope{
		From:    holderDID,
		To:      issuerDID,
		Message: json.RawMessage(`{"@type":"unknown"}`),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), holderDID)
}

type failingProvider struct {
	storage.Provider
}

func (p *failingProvider) OpenStore(name string) (storage.Store, error) {
	if name == credentialexchange.StoreName {
		return nil, errors.New("open store failed")
	}

	return p.Provider.OpenStore(name)
}
