/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storage/leveldb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hyperledger/aries-credential-exchange/pkg/common/log/zaplog"
	"github.com/hyperledger/aries-credential-exchange/pkg/common/metrics"
	"github.com/hyperledger/aries-credential-exchange/pkg/controller/rest"
	restic "github.com/hyperledger/aries-credential-exchange/pkg/controller/rest/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/controller/webnotifier"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/dispatcher/outbound"
	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	arieshttp "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/transport/http"
	"github.com/hyperledger/aries-credential-exchange/pkg/framework/aries"
	"github.com/hyperledger/aries-credential-exchange/pkg/storage/sqlite"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/connection"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

const (
	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"
	databaseTypeSQLiteOption  = "sqlite"

	wsPath      = "/ws"
	metricsPath = "/metrics"
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("credex/agent")
)

type agentParameters struct {
	server               server
	host, token          string
	inboundHost          string
	metricsHost          string
	dbParam              *dbParam
	webhookURLs          []string
	peers                outbound.StaticEndpoints
	connections          []*connection.Record
	autoAccept           credentialexchange.AutoAccept
	maxNegotiationRounds int
	requestTTL           time.Duration
	versions             []protocol.Version
	tlsCertFile          string
	tlsKeyFile           string
}

type dbParam struct {
	dbType  string
	url     string
	timeout uint64
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(url string) (storage.Provider, error){
	databaseTypeMemOption: func(string) (storage.Provider, error) {
		return mem.NewProvider(), nil
	},
	databaseTypeLevelDBOption: func(path string) (storage.Provider, error) {
		return leveldb.NewProvider(path), nil
	},
	databaseTypeSQLiteOption: func(path string) (storage.Provider, error) {
		return sqlite.NewProvider(path)
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer serves with net/http, over TLS when both files are given.
type HTTPServer struct{}

// ListenAndServe blocks until the server fails.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile == "" || keyFile == "" {
		return http.ListenAndServe(host, router) // nolint:gosec
	}

	return http.ListenAndServeTLS(host, certFile, keyFile, router) // nolint:gosec
}

// Cmd returns the start command of the agent.
func Cmd(server server) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an agent",
		Long:  "Start a credential exchange agent controller",
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		parameters, err := readParameters(cmd)
		if err != nil {
			return err
		}

		parameters.server = server

		return startAgent(parameters)
	}

	registerFlags(cmd)

	return cmd, nil
}

func readParameters(cmd *cobra.Command) (*agentParameters, error) { // nolint:funlen,gocyclo
	r := &resolver{cmd: cmd}

	configFile, err := r.optional(configFileFlagName)
	if err != nil {
		return nil, err
	}

	if r.file, err = loadConfigFile(configFile); err != nil {
		return nil, err
	}

	if err = configureLogging(r); err != nil {
		return nil, err
	}

	p := &agentParameters{}

	if p.host, err = r.required(agentHostFlagName); err != nil {
		return nil, err
	}

	for name, dst := range map[string]*string{
		agentTokenFlagName:       &p.token,
		agentInboundHostFlagName: &p.inboundHost,
		agentMetricsHostFlagName: &p.metricsHost,
		agentTLSCertFileFlagName: &p.tlsCertFile,
		agentTLSKeyFileFlagName:  &p.tlsKeyFile,
	} {
		if *dst, err = r.optional(name); err != nil {
			return nil, err
		}
	}

	if p.dbParam, err = getDBParam(r); err != nil {
		return nil, err
	}

	if p.webhookURLs, err = r.list(agentWebhookFlagName); err != nil {
		return nil, err
	}

	if p.peers, err = getPeers(r); err != nil {
		return nil, err
	}

	if p.connections, err = getConnections(r); err != nil {
		return nil, err
	}

	if p.autoAccept, err = getAutoAcceptValue(r); err != nil {
		return nil, err
	}

	if p.maxNegotiationRounds, err = getMaxNegotiationRounds(r); err != nil {
		return nil, err
	}

	if p.requestTTL, err = getRequestTTL(r); err != nil {
		return nil, err
	}

	if p.versions, err = getProtocolVersions(r); err != nil {
		return nil, err
	}

	return p, nil
}

func configureLogging(r *resolver) error {
	format, err := r.optional(agentLogFormatFlagName)
	if err != nil {
		return err
	}

	if err = initLogger(format); err != nil {
		return err
	}

	level, err := r.optional(agentLogLevelFlagName)
	if err != nil {
		return err
	}

	return setLogLevel(level)
}

func getDBParam(r *resolver) (*dbParam, error) {
	dbType, err := r.required(databaseTypeFlagName)
	if err != nil {
		return nil, err
	}

	url, err := r.optional(databaseURLFlagName)
	if err != nil {
		return nil, err
	}

	param := &dbParam{dbType: dbType, url: url, timeout: databaseTimeoutDefault}

	timeout, err := r.optional(databaseTimeoutFlagName)
	if err != nil || timeout == "" || timeout == "0" {
		return param, err
	}

	param.timeout, err = strconv.ParseUint(timeout, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", timeout, err)
	}

	return param, nil
}

func getPeers(r *resolver) (outbound.StaticEndpoints, error) {
	values, err := r.list(agentPeerFlagName)
	if err != nil {
		return nil, err
	}

	peers := outbound.StaticEndpoints{}

	for _, v := range values {
		did, url, ok := strings.Cut(v, "@")
		if !ok || did == "" || url == "" {
			return nil, fmt.Errorf("invalid peer option %q: expected did@url", v)
		}

		peers[did] = url
	}

	return peers, nil
}

func getConnections(r *resolver) ([]*connection.Record, error) {
	values, err := r.list(agentConnectionFlagName)
	if err != nil {
		return nil, err
	}

	records := make([]*connection.Record, 0, len(values))

	for _, v := range values {
		parts := strings.Split(v, "@")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" { // nolint:gomnd
			return nil, fmt.Errorf("invalid connection option %q: expected connectionID@myDID@theirDID", v)
		}

		records = append(records, &connection.Record{
			ConnectionID: parts[0],
			MyDID:        parts[1],
			TheirDID:     parts[2],
			State:        connection.StateCompleted,
		})
	}

	return records, nil
}

func getAutoAcceptValue(r *resolver) (credentialexchange.AutoAccept, error) {
	v, err := r.optional(agentAutoAcceptFlagName)
	if err != nil {
		return "", err
	}

	switch mode := credentialexchange.AutoAccept(v); mode {
	case "":
		return credentialexchange.AutoAcceptNever, nil
	case credentialexchange.AutoAcceptAlways, credentialexchange.AutoAcceptContentApproved,
		credentialexchange.AutoAcceptNever:
		return mode, nil
	default:
		return "", fmt.Errorf("auto accept [%s] not supported", v)
	}
}

func getMaxNegotiationRounds(r *resolver) (int, error) {
	v, err := r.optional(agentMaxRoundsFlagName)
	if err != nil || v == "" {
		return 0, err
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("failed to parse max negotiation rounds %s", v)
	}

	return n, nil
}

func getRequestTTL(r *resolver) (time.Duration, error) {
	v, err := r.optional(agentRequestTTLFlagName)
	if err != nil || v == "" {
		return 0, err
	}

	ttl, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse request ttl %s: %w", v, err)
	}

	return ttl, nil
}

func getProtocolVersions(r *resolver) ([]protocol.Version, error) {
	values, err := r.list(agentVersionsFlagName)
	if err != nil {
		return nil, err
	}

	var versions []protocol.Version

	for _, v := range values {
		switch version := protocol.Version(strings.TrimSpace(v)); version {
		case protocol.V1, protocol.V2:
			versions = append(versions, version)
		default:
			return nil, fmt.Errorf("protocol version [%s] not supported", v)
		}
	}

	return versions, nil
}

func initLogger(format string) error {
	if format == "" {
		return nil
	}

	if format != zaplog.EncodingJSON && format != zaplog.EncodingConsole {
		return fmt.Errorf("log format [%s] not supported", format)
	}

	provider, err := zaplog.New(zaplog.WithEncoding(format))
	if err != nil {
		return fmt.Errorf("failed to create logger : %w", err)
	}

	log.Initialize(provider)

	return nil
}

func setLogLevel(logLevel string) error {
	if logLevel == "" {
		return nil
	}

	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
	}

	log.SetLevel("", level)
	logger.Debugf("log level %s", logLevel)

	return nil
}

// bearerAuth rejects requests whose Authorization header does not carry token.
func bearerAuth(token string) mux.MiddlewareFunc {
	expected := []byte("Bearer " + token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), expected) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type listener struct {
	name    string
	host    string
	handler http.Handler
	tls     bool
}

func startAgent(parameters *agentParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	var m *metrics.Metrics

	if parameters.metricsHost != "" {
		var err error

		if m, err = metrics.New(); err != nil {
			return fmt.Errorf("failed to create metrics : %w", err)
		}
	}

	framework, err := createAgent(parameters, m)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := framework.Close(); closeErr != nil {
			logger.Warnf("failed to close framework : %s", closeErr)
		}
	}()

	apiHandler, err := createAPIHandler(parameters, framework)
	if err != nil {
		return err
	}

	listeners := []listener{{name: "rest api", host: parameters.host, handler: apiHandler, tls: true}}

	if parameters.inboundHost != "" {
		inboundHandler, err := arieshttp.NewInboundHandler(context.Background(), framework.InboundMessageHandler())
		if err != nil {
			return fmt.Errorf("failed to create inbound handler : %w", err)
		}

		listeners = append(listeners, listener{name: "didcomm inbound", host: parameters.inboundHost,
			handler: inboundHandler, tls: true})
	}

	if m != nil {
		router := mux.NewRouter()
		router.Handle(metricsPath, m.Handler()).Methods(http.MethodGet)

		listeners = append(listeners, listener{name: "metrics", host: parameters.metricsHost, handler: router})
	}

	g := &errgroup.Group{}

	for _, l := range listeners {
		l := l

		logger.Infof("starting %s server on [%s]", l.name, l.host)

		g.Go(func() error {
			certFile, keyFile := "", ""
			if l.tls {
				certFile, keyFile = parameters.tlsCertFile, parameters.tlsKeyFile
			}

			if err := parameters.server.ListenAndServe(l.host, l.handler, certFile, keyFile); err != nil {
				return fmt.Errorf("%s server on [%s]: %w", l.name, l.host, err)
			}

			return nil
		})
	}

	return g.Wait()
}

func createAPIHandler(parameters *agentParameters, framework *aries.Aries) (http.Handler, error) {
	notifier := webnotifier.New(wsPath, parameters.webhookURLs)

	op, err := restic.New(framework, notifier)
	if err != nil {
		return nil, fmt.Errorf("create issuecredential rest api: %w", err)
	}

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(bearerAuth(parameters.token))
	}

	rest.RegisterHandlers(router, op.GetRESTHandlers()...)
	rest.RegisterHandlers(router, notifier.GetRESTHandlers()...)

	return cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router), nil
}

func createAgent(parameters *agentParameters, m *metrics.Metrics) (*aries.Aries, error) {
	storePro, err := createStoreProvider(parameters)
	if err != nil {
		return nil, err
	}

	engineOpts := []protocol.Opt{protocol.WithAutoAccept(parameters.autoAccept)}

	if parameters.maxNegotiationRounds > 0 {
		engineOpts = append(engineOpts, protocol.WithMaxNegotiationRounds(parameters.maxNegotiationRounds))
	}

	if m != nil {
		engineOpts = append(engineOpts, protocol.WithMetrics(m))
	}

	opts := []aries.Option{
		aries.WithStoreProvider(storePro),
		aries.WithEndpointResolver(parameters.peers),
		aries.WithEngineOptions(engineOpts...),
	}

	if len(parameters.versions) > 0 {
		opts = append(opts, aries.WithProtocolVersions(parameters.versions...))
	}

	if parameters.requestTTL > 0 {
		opts = append(opts, aries.WithRequestTTL(parameters.requestTTL))
	}

	framework, err := aries.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize agent: %w", err)
	}

	for _, rec := range parameters.connections {
		if err = framework.ConnectionRecorder().SaveConnectionRecord(rec); err != nil {
			closeErr := framework.Close()

			return nil, fmt.Errorf("close err: %v failed to save connection %s : %w", closeErr, rec.ConnectionID, err)
		}
	}

	return framework, nil
}

func createStoreProvider(parameters *agentParameters) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[parameters.dbParam.dbType]
	if !supported {
		return nil, fmt.Errorf("database type %q not supported: use mem, leveldb or sqlite",
			parameters.dbParam.dbType)
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() (err error) {
			store, err = provider(parameters.dbParam.url)

			return err
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), parameters.dbParam.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf("storage not available, retrying in %s: %s", t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("open %s storage %s: %w", parameters.dbParam.dbType, parameters.dbParam.url, err)
	}

	return store, nil
}
