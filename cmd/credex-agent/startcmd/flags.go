/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	configFileFlagName       = "config-file"
	agentHostFlagName        = "api-host"
	agentTokenFlagName       = "api-token"
	agentInboundHostFlagName = "inbound-host"
	agentMetricsHostFlagName = "metrics-host"
	databaseTypeFlagName     = "database-type"
	databaseURLFlagName      = "database-url"
	databaseTimeoutFlagName  = "database-timeout"
	agentWebhookFlagName     = "webhook-url"
	agentLogLevelFlagName    = "log-level"
	agentLogFormatFlagName   = "log-format"
	agentPeerFlagName        = "peer"
	agentConnectionFlagName  = "connection"
	agentAutoAcceptFlagName  = "auto-accept"
	agentMaxRoundsFlagName   = "max-negotiation-rounds"
	agentRequestTTLFlagName  = "request-ttl"
	agentVersionsFlagName    = "protocol-version"
	agentTLSCertFileFlagName = "tls-cert-file"
	agentTLSKeyFileFlagName  = "tls-key-file"

	configFileEnvKey      = "CREDEX_CONFIG_FILE"
	agentHostEnvKey       = "CREDEX_API_HOST"
	agentTokenEnvKey      = "CREDEX_API_TOKEN" // nolint:gosec
	agentInboundEnvKey    = "CREDEX_INBOUND_HOST"
	agentMetricsEnvKey    = "CREDEX_METRICS_HOST"
	databaseTypeEnvKey    = "CREDEX_DATABASE_TYPE"
	databaseURLEnvKey     = "CREDEX_DATABASE_URL"
	databaseTimeoutEnvKey = "CREDEX_DATABASE_TIMEOUT"
	agentWebhookEnvKey    = "CREDEX_WEBHOOK_URL"
	agentLogLevelEnvKey   = "CREDEX_LOG_LEVEL"
	agentLogFormatEnvKey  = "CREDEX_LOG_FORMAT"
	agentPeerEnvKey       = "CREDEX_PEERS"
	agentConnectionEnvKey = "CREDEX_CONNECTIONS"
	agentAutoAcceptEnvKey = "CREDEX_AUTO_ACCEPT"
	agentMaxRoundsEnvKey  = "CREDEX_MAX_NEGOTIATION_ROUNDS"
	agentRequestTTLEnvKey = "CREDEX_REQUEST_TTL"
	agentVersionsEnvKey   = "CREDEX_PROTOCOL_VERSIONS"
	agentTLSCertEnvKey    = "TLS_CERT_FILE"
	agentTLSKeyEnvKey     = "TLS_KEY_FILE"

	databaseTimeoutDefault = 30
)

// setting is one option of the start command. Every setting is a flag with an environment fallback and,
// except the config file itself, a key of the config file.
type setting struct {
	name      string
	shorthand string
	env       string
	usage     string
	list      bool
}

func (s setting) help() string {
	if s.list {
		return s.usage + " Repeatable. Environment variable (comma separated): " + s.env + "."
	}

	return s.usage + " Environment variable: " + s.env + "."
}

// nolint:gochecknoglobals
var settings = []setting{
	{name: configFileFlagName, env: configFileEnvKey,
		usage: "TOML file keyed by flag name. Flags and environment variables take precedence over it."},
	{name: agentHostFlagName, shorthand: "a", env: agentHostEnvKey,
		usage: "Host:port of the REST API."},
	{name: agentTokenFlagName, shorthand: "t", env: agentTokenEnvKey,
		usage: "Bearer token the REST API requires (optional)."},
	{name: agentInboundHostFlagName, shorthand: "i", env: agentInboundEnvKey,
		usage: "Host:port of the DIDComm HTTP inbound server (optional)."},
	{name: agentMetricsHostFlagName, env: agentMetricsEnvKey,
		usage: "Host:port of the prometheus metrics server (optional)."},
	{name: databaseTypeFlagName, shorthand: "q", env: databaseTypeEnvKey,
		usage: "Storage backend: mem, leveldb or sqlite."},
	{name: databaseURLFlagName, shorthand: "v", env: databaseURLEnvKey,
		usage: "Path of the leveldb directory or sqlite file. Ignored by mem."},
	{name: databaseTimeoutFlagName, env: databaseTimeoutEnvKey,
		usage: fmt.Sprintf("Seconds to keep retrying to open the storage. Default: %d.", databaseTimeoutDefault)},
	{name: agentWebhookFlagName, shorthand: "w", env: agentWebhookEnvKey, list: true,
		usage: "URL that receives exchange notifications."},
	{name: agentLogLevelFlagName, env: agentLogLevelEnvKey,
		usage: "Log level: DEBUG, INFO, WARNING, ERROR or CRITICAL. Default: INFO."},
	{name: agentLogFormatFlagName, env: agentLogFormatEnvKey,
		usage: "Structured log encoding: json or console. The plain logger is used when unset."},
	{name: agentPeerFlagName, shorthand: "p", env: agentPeerEnvKey, list: true,
		usage: "DIDComm endpoint of a counterparty as did@url."},
	{name: agentConnectionFlagName, env: agentConnectionEnvKey, list: true,
		usage: "Completed connection recorded at startup as connectionID@myDID@theirDID."},
	{name: agentAutoAcceptFlagName, env: agentAutoAcceptEnvKey,
		usage: "Default auto accept policy: always, contentApproved or never. Default: never."},
	{name: agentMaxRoundsFlagName, env: agentMaxRoundsEnvKey,
		usage: "Proposals and offers after which an exchange is abandoned. 0 means no limit."},
	{name: agentRequestTTLFlagName, env: agentRequestTTLEnvKey,
		usage: "How long a connection-less message waits for its reply, for example 10m."},
	{name: agentVersionsFlagName, env: agentVersionsEnvKey, list: true,
		usage: "Protocol version to serve: v1 or v2. Default: both."},
	{name: agentTLSCertFileFlagName, shorthand: "c", env: agentTLSCertEnvKey,
		usage: "TLS certificate file."},
	{name: agentTLSKeyFileFlagName, shorthand: "k", env: agentTLSKeyEnvKey,
		usage: "TLS key file."},
}

func settingFor(name string) (setting, bool) {
	for _, s := range settings {
		if s.name == name {
			return s, true
		}
	}

	return setting{}, false
}

func isConfigKey(name string) bool {
	_, ok := settingFor(name)

	return ok && name != configFileFlagName
}

func registerFlags(cmd *cobra.Command) {
	for _, s := range settings {
		if s.list {
			cmd.Flags().StringSliceP(s.name, s.shorthand, nil, s.help())

			continue
		}

		cmd.Flags().StringP(s.name, s.shorthand, "", s.help())
	}
}

// resolver reads settings from the command line, then the environment, then the config file.
type resolver struct {
	cmd  *cobra.Command
	file *fileConfig
}

func (r *resolver) optional(name string) (string, error) {
	v, _, err := r.lookup(name)

	return v, err
}

func (r *resolver) required(name string) (string, error) {
	v, ok, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	if !ok {
		s, _ := settingFor(name)

		return "", fmt.Errorf("%s not set: use the --%s flag or the %s environment variable", name, name, s.env)
	}

	return v, nil
}

func (r *resolver) lookup(name string) (string, bool, error) {
	s, ok := settingFor(name)
	if !ok {
		return "", false, fmt.Errorf("unknown setting %s", name)
	}

	if r.cmd.Flags().Changed(name) {
		v, err := r.cmd.Flags().GetString(name)

		return v, true, err
	}

	if v, ok := os.LookupEnv(s.env); ok {
		return v, true, nil
	}

	v, ok := r.file.lookup(name)

	return v, ok, nil
}

func (r *resolver) list(name string) ([]string, error) {
	s, ok := settingFor(name)
	if !ok {
		return nil, fmt.Errorf("unknown setting %s", name)
	}

	if r.cmd.Flags().Changed(name) {
		return r.cmd.Flags().GetStringSlice(name)
	}

	if v, ok := os.LookupEnv(s.env); ok {
		return strings.Split(v, ","), nil
	}

	values, _ := r.file.lookupSlice(name)

	return values, nil
}
