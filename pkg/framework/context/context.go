/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package context creates a framework Provider context to add optional (non default) framework services and provides
// simple accessor methods to those same services.
package context

import (
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credential-exchange/pkg/client/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/connection"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/didcommmsg"
)

// Provider supplies the framework configuration to client objects.
type Provider struct {
	storeProvider      storage.Provider
	formatRegistry     *format.Registry
	recordStore        *credentialexchange.Store
	messageLog         *didcommmsg.Store
	connectionRecorder *connection.Recorder
	trust              *connection.Trust
	outbound           issuecredential.Sender
	engines            []*protocol.Engine
}

// New instantiates a new context provider.
func New(opts ...ProviderOption) (*Provider, error) {
	ctxProvider := Provider{}

	for _, opt := range opts {
		err := opt(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("option failed: %w", err)
		}
	}

	if ctxProvider.storeProvider != nil && ctxProvider.connectionRecorder == nil {
		recorder, err := connection.NewRecorder(ctxProvider.storeProvider)
		if err != nil {
			return nil, fmt.Errorf("initialize context connection recorder: %w", err)
		}

		ctxProvider.connectionRecorder = recorder
	}

	if ctxProvider.trust == nil && ctxProvider.connectionRecorder != nil {
		ctxProvider.trust = connection.NewTrust(ctxProvider.connectionRecorder.Lookup)
	}

	return &ctxProvider, nil
}

// StorageProvider return a storage provider.
func (p *Provider) StorageProvider() storage.Provider {
	return p.storeProvider
}

// FormatRegistry returns the credential format plugins.
func (p *Provider) FormatRegistry() *format.Registry {
	return p.formatRegistry
}

// RecordStore returns the exchange record store used by the protocol engines.
func (p *Provider) RecordStore() protocol.RecordStore {
	return p.recordStore
}

// MessageLog returns the protocol message log.
func (p *Provider) MessageLog() protocol.MessageLog {
	return p.messageLog
}

// ConnectionTrust returns the connection trust collaborator.
func (p *Provider) ConnectionTrust() protocol.ConnectionTrust {
	return p.trust
}

// Engines returns the protocol engines, one per protocol version.
func (p *Provider) Engines() []*protocol.Engine {
	return p.engines
}

// Records returns the exchange records reader.
func (p *Provider) Records() issuecredential.RecordReader {
	return p.recordStore
}

// Outbound returns the outbound dispatcher.
func (p *Provider) Outbound() issuecredential.Sender {
	return p.outbound
}

// Connections returns the connection lookup.
func (p *Provider) Connections() issuecredential.ConnectionLookup {
	if p.connectionRecorder == nil {
		return nil
	}

	return p.connectionRecorder.Lookup
}

// RequestRecorder returns the recorder of connection-less requests.
func (p *Provider) RequestRecorder() issuecredential.RequestRecorder {
	return p.trust
}

// ConnectionLookup returns a connection.Lookup initialized on this context's stores.
func (p *Provider) ConnectionLookup() *connection.Lookup {
	if p.connectionRecorder == nil {
		return nil
	}

	return p.connectionRecorder.Lookup
}

// ConnectionRecorder returns the connection recorder.
func (p *Provider) ConnectionRecorder() *connection.Recorder {
	return p.connectionRecorder
}

// ProviderOption configures the framework.
type ProviderOption func(opts *Provider) error

// WithStorageProvider injects a storage provider into the context.
func WithStorageProvider(s storage.Provider) ProviderOption {
	return func(opts *Provider) error {
		opts.storeProvider = s
		return nil
	}
}

// WithFormatRegistry injects the credential format plugins into the context.
func WithFormatRegistry(r *format.Registry) ProviderOption {
	return func(opts *Provider) error {
		opts.formatRegistry = r
		return nil
	}
}

// WithRecordStore injects the exchange record store into the context.
func WithRecordStore(s *credentialexchange.Store) ProviderOption {
	return func(opts *Provider) error {
		opts.recordStore = s
		return nil
	}
}

// WithMessageLog injects the protocol message log into the context.
func WithMessageLog(s *didcommmsg.Store) ProviderOption {
	return func(opts *Provider) error {
		opts.messageLog = s
		return nil
	}
}

// WithConnectionRecorder injects a connection recorder into the context.
func WithConnectionRecorder(r *connection.Recorder) ProviderOption {
	return func(opts *Provider) error {
		opts.connectionRecorder = r
		return nil
	}
}

// WithConnectionTrust injects the connection trust collaborator into the context.
func WithConnectionTrust(t *connection.Trust) ProviderOption {
	return func(opts *Provider) error {
		opts.trust = t
		return nil
	}
}

// WithOutboundDispatcher injects an outbound dispatcher into the context.
func WithOutboundDispatcher(s issuecredential.Sender) ProviderOption {
	return func(opts *Provider) error {
		opts.outbound = s
		return nil
	}
}

// WithEngines injects protocol engines into the context.
func WithEngines(engines ...*protocol.Engine) ProviderOption {
	return func(opts *Provider) error {
		if len(engines) == 0 {
			return errors.New("no engines given")
		}

		opts.engines = engines

		return nil
	}
}
