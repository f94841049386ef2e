/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package aries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credential-exchange/pkg/client/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/dispatcher/outbound"
	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/transport"
	fwcontext "github.com/hyperledger/aries-credential-exchange/pkg/framework/context"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/connection"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/didcommmsg"
)

var logger = log.New("credex/framework")

// FormatPluginCreator creates a credential format plugin on the framework storage.
type FormatPluginCreator func(p storage.Provider) (format.Plugin, error)

// Aries provides access to the context being managed by the framework. The context can be used to create
// issuecredential clients.
type Aries struct {
	storeProvider      storage.Provider
	formatCreators     []FormatPluginCreator
	formatRegistry     *format.Registry
	v1Registry         *format.Registry
	outboundTransports []transport.OutboundTransport
	endpoints          outbound.EndpointResolver
	outboundDispatcher *outbound.Dispatcher
	versions           []protocol.Version
	engineOpts         []protocol.Opt
	clientOpts         []issuecredential.Opt
	recordCacheSize    int
	cacheSizeSet       bool
	requestTTL         time.Duration
	recordStore        *credentialexchange.Store
	messageLog         *didcommmsg.Store
	connectionRecorder *connection.Recorder
	trust              *connection.Trust
	engines            []*protocol.Engine
	client             *issuecredential.Client
}

// Option configures the framework.
type Option func(opts *Aries) error

// New initializes the framework based on the set of options provided. This function returns a framework
// which can be used to manage the issuecredential client by getting the framework context.
func New(opts ...Option) (*Aries, error) {
	frameworkOpts := &Aries{}

	// generate framework configs from options
	for _, option := range opts {
		err := option(frameworkOpts)
		if err != nil {
			closeErr := frameworkOpts.Close()
			return nil, fmt.Errorf("close err: %v Error in option passed to New: %w", closeErr, err)
		}
	}

	// get the default framework options
	err := defFrameworkOpts(frameworkOpts)
	if err != nil {
		return nil, fmt.Errorf("default option initialization failed: %w", err)
	}

	return initializeServices(frameworkOpts)
}

func initializeServices(frameworkOpts *Aries) (*Aries, error) {
	if err := createFormatRegistry(frameworkOpts); err != nil {
		return nil, err
	}

	if err := createStores(frameworkOpts); err != nil {
		return nil, err
	}

	if err := createOutboundDispatcher(frameworkOpts); err != nil {
		return nil, err
	}

	if err := createEngines(frameworkOpts); err != nil {
		return nil, err
	}

	ctx, err := frameworkOpts.Context()
	if err != nil {
		return nil, fmt.Errorf("context creation failed: %w", err)
	}

	frameworkOpts.client, err = issuecredential.New(ctx, frameworkOpts.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create issuecredential client: %w", err)
	}

	return frameworkOpts, nil
}

// WithStoreProvider injects a storage provider to the framework.
func WithStoreProvider(prov storage.Provider) Option {
	return func(opts *Aries) error {
		opts.storeProvider = prov
		return nil
	}
}

// WithFormatPlugins replaces the default credential format plugins.
func WithFormatPlugins(creators ...FormatPluginCreator) Option {
	return func(opts *Aries) error {
		opts.formatCreators = append(opts.formatCreators, creators...)
		return nil
	}
}

// WithOutboundTransports injects outbound transports to the framework.
func WithOutboundTransports(outboundTransports ...transport.OutboundTransport) Option {
	return func(opts *Aries) error {
		opts.outboundTransports = append(opts.outboundTransports, outboundTransports...)
		return nil
	}
}

// WithEndpointResolver sets how the endpoint of a counterparty DID is found.
func WithEndpointResolver(r outbound.EndpointResolver) Option {
	return func(opts *Aries) error {
		opts.endpoints = r
		return nil
	}
}

// WithProtocolVersions sets the issuecredential protocol versions the agent speaks.
func WithProtocolVersions(versions ...protocol.Version) Option {
	return func(opts *Aries) error {
		for _, v := range versions {
			if v != protocol.V1 && v != protocol.V2 {
				return fmt.Errorf("unsupported protocol version %q", v)
			}
		}

		opts.versions = versions

		return nil
	}
}

// WithEngineOptions configures every protocol engine.
func WithEngineOptions(engineOpts ...protocol.Opt) Option {
	return func(opts *Aries) error {
		opts.engineOpts = append(opts.engineOpts, engineOpts...)
		return nil
	}
}

// WithClientOptions configures the issuecredential client.
func WithClientOptions(clientOpts ...issuecredential.Opt) Option {
	return func(opts *Aries) error {
		opts.clientOpts = append(opts.clientOpts, clientOpts...)
		return nil
	}
}

// WithRecordCacheSize sets how many exchange records and messages are kept in memory.
func WithRecordCacheSize(size int) Option {
	return func(opts *Aries) error {
		if size < 0 {
			return errors.New("record cache size must not be negative")
		}

		opts.recordCacheSize = size
		opts.cacheSizeSet = true

		return nil
	}
}

// WithRequestTTL sets how long a connection-less message waits for its reply.
func WithRequestTTL(ttl time.Duration) Option {
	return func(opts *Aries) error {
		opts.requestTTL = ttl
		return nil
	}
}

// Context provides a handle to the framework context.
func (a *Aries) Context() (*fwcontext.Provider, error) {
	ctxOpts := []fwcontext.ProviderOption{
		fwcontext.WithStorageProvider(a.storeProvider),
		fwcontext.WithFormatRegistry(a.formatRegistry),
		fwcontext.WithRecordStore(a.recordStore),
		fwcontext.WithMessageLog(a.messageLog),
		fwcontext.WithConnectionRecorder(a.connectionRecorder),
		fwcontext.WithConnectionTrust(a.trust),
		fwcontext.WithOutboundDispatcher(a.outboundDispatcher),
	}

	if len(a.engines) > 0 {
		ctxOpts = append(ctxOpts, fwcontext.WithEngines(a.engines...))
	}

	return fwcontext.New(ctxOpts...)
}

// IssueCredentialClient returns the issuecredential client of the framework.
func (a *Aries) IssueCredentialClient() *issuecredential.Client {
	return a.client
}

// ConnectionRecorder returns the store of the connections the agent trusts.
func (a *Aries) ConnectionRecorder() *connection.Recorder {
	return a.connectionRecorder
}

// ConnectionLookup returns the read side of the connection store.
func (a *Aries) ConnectionLookup() *connection.Lookup {
	return a.connectionRecorder.Lookup
}

// InboundMessageHandler returns the handler of envelopes received by inbound transports.
func (a *Aries) InboundMessageHandler() transport.InboundMessageHandler {
	return func(ctx context.Context, env *transport.Envelope) error {
		inbound := service.InboundContext{MyDID: env.To, TheirDID: env.From}

		connID, err := a.connectionRecorder.GetConnectionIDByDIDs(env.To, env.From)
		if err == nil {
			inbound.ConnectionID = connID
		} else {
			logger.Debugf("no connection between %s and %s, handling as connection-less", env.To, env.From)
		}

		threadID, err := a.client.HandleInbound(ctx, env.Message, inbound)
		if err != nil {
			return fmt.Errorf("inbound message from %s: %w", env.From, err)
		}

		logger.Debugf("handled inbound message on thread %s", threadID)

		return nil
	}
}

// Close frees resources being maintained by the framework.
func (a *Aries) Close() error {
	if a.storeProvider != nil {
		err := a.storeProvider.Close()
		if err != nil {
			return fmt.Errorf("failed to close the store: %w", err)
		}
	}

	return nil
}

func createFormatRegistry(frameworkOpts *Aries) error {
	plugins := make([]format.Plugin, 0, len(frameworkOpts.formatCreators))

	for _, create := range frameworkOpts.formatCreators {
		p, err := create(frameworkOpts.storeProvider)
		if err != nil {
			return fmt.Errorf("create format plugin: %w", err)
		}

		plugins = append(plugins, p)
	}

	registry, err := format.NewRegistry(plugins...)
	if err != nil {
		return fmt.Errorf("create format registry: %w", err)
	}

	frameworkOpts.formatRegistry = registry

	// v1 messages carry a single format, the first plugin
	if len(plugins) > 0 {
		frameworkOpts.v1Registry, err = format.NewRegistry(plugins[0])
		if err != nil {
			return fmt.Errorf("create v1 format registry: %w", err)
		}
	}

	return nil
}

func createStores(frameworkOpts *Aries) error {
	var (
		recordOpts  []credentialexchange.Opt
		messageOpts []didcommmsg.Opt
		err         error
	)

	if frameworkOpts.cacheSizeSet {
		recordOpts = append(recordOpts, credentialexchange.WithCacheSize(frameworkOpts.recordCacheSize))
		messageOpts = append(messageOpts, didcommmsg.WithCacheSize(frameworkOpts.recordCacheSize))
	}

	frameworkOpts.recordStore, err = credentialexchange.New(frameworkOpts.storeProvider, recordOpts...)
	if err != nil {
		return fmt.Errorf("create exchange record store: %w", err)
	}

	frameworkOpts.messageLog, err = didcommmsg.New(frameworkOpts.storeProvider, messageOpts...)
	if err != nil {
		return fmt.Errorf("create message log: %w", err)
	}

	frameworkOpts.connectionRecorder, err = connection.NewRecorder(frameworkOpts.storeProvider)
	if err != nil {
		return fmt.Errorf("create connection recorder: %w", err)
	}

	var trustOpts []connection.TrustOpt
	if frameworkOpts.requestTTL > 0 {
		trustOpts = append(trustOpts, connection.WithRequestTTL(frameworkOpts.requestTTL))
	}

	frameworkOpts.trust = connection.NewTrust(frameworkOpts.connectionRecorder.Lookup, trustOpts...)

	return nil
}

func createOutboundDispatcher(frameworkOpts *Aries) error {
	dispatcher, err := outbound.NewOutbound(frameworkOpts.endpoints, frameworkOpts.outboundTransports...)
	if err != nil {
		return fmt.Errorf("create outbound dispatcher: %w", err)
	}

	frameworkOpts.outboundDispatcher = dispatcher

	return nil
}

func createEngines(frameworkOpts *Aries) error {
	ctx, err := frameworkOpts.Context()
	if err != nil {
		return fmt.Errorf("create context failed: %w", err)
	}

	for _, v := range frameworkOpts.versions {
		var p protocol.Provider = ctx
		if v == protocol.V1 {
			p = &v1Provider{Provider: ctx, registry: frameworkOpts.v1Registry}
		}

		e, err := protocol.New(v, p, frameworkOpts.engineOpts...)
		if err != nil {
			return fmt.Errorf("create %s engine: %w", v, err)
		}

		frameworkOpts.engines = append(frameworkOpts.engines, e)
	}

	return nil
}

type v1Provider struct {
	*fwcontext.Provider
	registry *format.Registry
}

func (p *v1Provider) FormatRegistry() *format.Registry {
	return p.registry
}
