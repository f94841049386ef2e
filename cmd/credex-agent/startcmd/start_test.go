/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

		"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credential-exchange/pkg/common/metrics"
	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/connection"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

type mockServer struct {
	hosts []string
	err   error
}

func (s *mockServer) ListenAndServe(host string, handler http.Handler, certFile, keyFile string) error {
	s.hosts = append(s.hosts, host)

	return s.err
}

func TestStartCmdContents(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	require.Equal(t, "start", startCmd.Use)
	require.Equal(t, "Start an agent", startCmd.Short)
	require.Equal(t, "Start a credential exchange agent controller", startCmd.Long)

	for _, s := range settings {
		flag := startCmd.Flag(s.name)

		require.NotNil(t, flag, s.name)
		require.Equal(t, s.shorthand, flag.Shorthand)
		require.Equal(t, s.help(), flag.Usage)
		require.Contains(t, flag.Usage, s.env)
		require.Nil(t, flag.Annotations)

		if s.list {
			require.Equal(t, "[]", flag.Value.String())
		} else {
			require.Empty(t, flag.Value.String())
		}
	}

	require.Equal(t, "p", startCmd.Flag(agentPeerFlagName).Shorthand)
}

func TestSettings(t *testing.T) {
	require.True(t, isConfigKey(agentHostFlagName))
	require.False(t, isConfigKey(configFileFlagName))
	require.False(t, isConfigKey("colour"))

	seen := map[string]bool{}

	for _, s := range settings {
		require.False(t, seen[s.name], "duplicate setting %s", s.name)
		seen[s.name] = true

		require.NotEmpty(t, s.env, s.name)
	}
}

func runStart(t *testing.T, server server, args ...string) error {
	t.Helper()

	startCmd, err := Cmd(server)
	require.NoError(t, err)

	startCmd.SetArgs(args)

	return startCmd.Execute()
}

func TestStartCmdWithBlankArg(t *testing.T) {
	t.Run("test blank host arg", func(t *testing.T) {
		err := runStart(t, &mockServer{}, "--"+agentHostFlagName, "", "--"+databaseTypeFlagName, "mem")
		require.Error(t, err)
		require.Equal(t, errMissingHost.Error(), err.Error())
	})

	t.Run("test blank database type", func(t *testing.T) {
		err := runStart(t, &mockServer{}, "--"+agentHostFlagName, "localhost:8080", "--"+databaseTypeFlagName, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), `database type "" not supported`)
	})
}

func TestStartCmdWithMissingArg(t *testing.T) {
	t.Run("missing host", func(t *testing.T) {
		err := runStart(t, &mockServer{}, "--"+databaseTypeFlagName, "mem")
		require.Error(t, err)
		require.EqualError(t, err,
			"api-host not set: use the --api-host flag or the CREDEX_API_HOST environment variable")
	})

	t.Run("missing database type", func(t *testing.T) {
		err := runStart(t, &mockServer{}, "--"+agentHostFlagName, "localhost:8080")
		require.Error(t, err)
		require.Contains(t, err.Error(), databaseTypeFlagName)
	})
}

func TestStartCmdValidArgs(t *testing.T) {
	t.Run("all flags", func(t *testing.T) {
		server := &mockServer{}

		err := runStart(t, server,
			"--"+agentHostFlagName, "localhost:8080",
			"--"+agentInboundHostFlagName, "localhost:8081",
			"--"+agentMetricsHostFlagName, "localhost:8082",
			"--"+agentTokenFlagName, "secret",
			"--"+databaseTypeFlagName, "mem",
			"--"+databaseTimeoutFlagName, "1",
			"--"+agentWebhookFlagName, "http://localhost:9000/hooks",
			"--"+agentLogLevelFlagName, "DEBUG",
			"--"+agentPeerFlagName, "did:example:issuer@http://localhost:8090",
			"--"+agentConnectionFlagName, "conn-1@did:example:holder@did:example:issuer",
			"--"+agentAutoAcceptFlagName, "contentApproved",
			"--"+agentMaxRoundsFlagName, "4",
			"--"+agentRequestTTLFlagName, "5m",
			"--"+agentVersionsFlagName, "v2",
		)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"localhost:8080", "localhost:8081", "localhost:8082"}, server.hosts)
	})

	t.Run("leveldb database", func(t *testing.T) {
		err := runStart(t, &mockServer{},
			"--"+agentHostFlagName, "localhost:8080",
			"--"+databaseTypeFlagName, "leveldb",
			"--"+databaseURLFlagName, filepath.Join(t.TempDir(), "db"),
		)
		require.NoError(t, err)
	})

	t.Run("sqlite database", func(t *testing.T) {
		err := runStart(t, &mockServer{},
			"--"+agentHostFlagName, "localhost:8080",
			"--"+databaseTypeFlagName, "sqlite",
			"--"+databaseURLFlagName, filepath.Join(t.TempDir(), "credex.db"),
		)
		require.NoError(t, err)
	})

	t.Run("server failure", func(t *testing.T) {
		err := runStart(t, &mockServer{err: errors.New("bind failed")},
			"--"+agentHostFlagName, "localhost:8080",
			"--"+databaseTypeFlagName, "mem",
		)
		require.Error(t, err)
		require.Contains(t, err.Error(), "bind failed")
	})
}

func TestStartCmdInvalidArgs(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{
			name:   "invalid peer",
			args:   []string{"--" + agentPeerFlagName, "did:example:issuer"},
			errMsg: "invalid peer option",
		},
		{
			name:   "invalid connection",
			args:   []string{"--" + agentConnectionFlagName, "conn-1@did:example:holder"},
			errMsg: "invalid connection option",
		},
		{
			name:   "invalid auto accept",
			args:   []string{"--" + agentAutoAcceptFlagName, "sometimes"},
			errMsg: "auto accept [sometimes] not supported",
		},
		{
			name:   "invalid protocol version",
			args:   []string{"--" + agentVersionsFlagName, "v3"},
			errMsg: "protocol version [v3] not supported",
		},
		{
			name:   "invalid max negotiation rounds",
			args:   []string{"--" + agentMaxRoundsFlagName, "-1"},
			errMsg: "failed to parse max negotiation rounds",
		},
		{
			name:   "invalid request ttl",
			args:   []string{"--" + agentRequestTTLFlagName, "soon"},
			errMsg: "failed to parse request ttl",
		},
		{
			name:   "invalid database timeout",
			args:   []string{"--" + databaseTimeoutFlagName, "later"},
			errMsg: "failed to parse db timeout",
		},
		{
			name:   "invalid log level",
			args:   []string{"--" + agentLogLevelFlagName, "LOUD"},
			errMsg: "failed to parse log level",
		},
		{
			name:   "invalid log format",
			args:   []string{"--" + agentLogFormatFlagName, "xml"},
			errMsg: "log format [xml] not supported",
		},
		{
			name:   "missing config file",
			args:   []string{"--" + configFileFlagName, filepath.Join(os.TempDir(), "no-such-credex.toml")},
			errMsg: "failed to read config file",
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{
				"--" + agentHostFlagName, "localhost:8080",
				"--" + databaseTypeFlagName, "mem",
			}, tc.args...)

			err := runStart(t, &mockServer{}, args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestStartCmdWithEnvVars(t *testing.T) {
	t.Setenv(agentHostEnvKey, "localhost:8080")
	t.Setenv(databaseTypeEnvKey, "mem")
	t.Setenv(agentPeerEnvKey, "did:example:a@http://a,did:example:b@http://b")
	t.Setenv(agentVersionsEnvKey, "v1,v2")
	t.Setenv(agentAutoAcceptEnvKey, "always")

	server := &mockServer{}

	require.NoError(t, runStart(t, server))
	require.Equal(t, []string{"localhost:8080"}, server.hosts)
}

func TestStartCmdWithConfigFile(t *testing.T) {
	writeConfig := func(t *testing.T, content string) string {
		t.Helper()

		path := filepath.Join(t.TempDir(), "credex.toml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		return path
	}

	t.Run("settings from file", func(t *testing.T) {
		path := writeConfig(t, `
api-host = "localhost:7070"
inbound-host = "localhost:7071"
database-type = "mem"
peer = ["did:example:issuer@http://localhost:8090"]
connection = ["conn-1@did:example:holder@did:example:issuer"]
max-negotiation-rounds = 3
protocol-version = ["v1", "v2"]
`)

		server := &mockServer{}

		require.NoError(t, runStart(t, server, "--"+configFileFlagName, path))
		require.ElementsMatch(t, []string{"localhost:7070", "localhost:7071"}, server.hosts)
	})

	t.Run("flags override file", func(t *testing.T) {
		path := writeConfig(t, `
api-host = "localhost:7070"
database-type = "mem"
auto-accept = "sometimes"
`)

		server := &mockServer{}

		err := runStart(t, server, "--"+configFileFlagName, path,
			"--"+agentHostFlagName, "localhost:6060",
			"--"+agentAutoAcceptFlagName, "never")
		require.NoError(t, err)
		require.Equal(t, []string{"localhost:6060"}, server.hosts)
	})

	t.Run("unknown key", func(t *testing.T) {
		path := writeConfig(t, `
api-host = "localhost:7070"
colour = "blue"
`)

		err := runStart(t, &mockServer{}, "--"+configFileFlagName, path)
		require.Error(t, err)
		require.Contains(t, err.Error(), `unknown key "colour"`)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeConfig(t, `api-host = `)

		err := runStart(t, &mockServer{}, "--"+configFileFlagName, path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestFileConfig_Lookup(t *testing.T) {
	var empty *fileConfig

	_, ok := empty.lookup(agentHostFlagName)
	require.False(t, ok)

	path := filepath.Join(t.TempDir(), "credex.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
webhook-url = "http://a,http://b"
database-timeout = 5
peer = ["did:example:a@http://a"]
`), 0o600))

	cfg, err := loadConfigFile(path)
	require.NoError(t, err)

	v, ok := cfg.lookup(databaseTimeoutFlagName)
	require.True(t, ok)
	require.Equal(t, "5", v)

	urls, ok := cfg.lookupSlice(agentWebhookFlagName)
	require.True(t, ok)
	require.Equal(t, []string{"http://a", "http://b"}, urls)

	peers, ok := cfg.lookupSlice(agentPeerFlagName)
	require.True(t, ok)
	require.Equal(t, []string{"did:example:a@http://a"}, peers)

	_, ok = cfg.lookup(agentHostFlagName)
	require.False(t, ok)
}

func TestAPIHandler(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	parameters := &agentParameters{
		host:        "localhost:8080",
		token:       "secret",
		dbParam:     &dbParam{dbType: databaseTypeMemOption},
		autoAccept:  credentialexchange.AutoAcceptNever,
		requestTTL:  time.Minute,
		versions:    []protocol.Version{protocol.V2},
		connections: []*connection.Record{{ConnectionID: "conn-1", MyDID: "did:a", TheirDID: "did:b",
			State: connection.StateCompleted}},
	}

	framework, err := createAgent(parameters, m)
	require.NoError(t, err)

	defer func() { require.NoError(t, framework.Close()) }()

	connID, err := framework.ConnectionLookup().GetConnectionIDByDIDs("did:a", "did:b")
	require.NoError(t, err)
	require.Equal(t, "conn-1", connID)

	handler, err := createAPIHandler(parameters, framework)
	require.NoError(t, err)

	t.Run("authorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/issuecredential/records", nil)
		req.Header.Set("Authorization", "Bearer secret")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Contains(t, rr.Body.String(), "records")
	})

	t.Run("unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/issuecredential/records", nil)
		req.Header.Set("Authorization", "Bearer wrong")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/issuecredential/records/unknown", nil)
		req.Header.Set("Authorization", "Bearer secret")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
