/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// fileConfig holds the settings of a TOML config file. Keys are flag names, for example:
//
//	api-host = "localhost:8080"
//	database-type = "leveldb"
//	peer = ["did:example:issuer@http://localhost:8090"]
type fileConfig struct {
	meta   toml.MetaData
	values map[string]interface{}
}

func loadConfigFile(path string) (*fileConfig, error) {
	cfg := &fileConfig{values: map[string]interface{}{}}

	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg.values)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s : %w", path, err)
	}

	cfg.meta = meta

	for key := range cfg.values {
		if !isConfigKey(key) {
			return nil, fmt.Errorf("config file %s : unknown key %q", path, key)
		}
	}

	return cfg, nil
}

func (c *fileConfig) lookup(key string) (string, bool) {
	if c == nil || !c.meta.IsDefined(key) {
		return "", false
	}

	switch v := c.values[key].(type) {
	case []interface{}:
		parts := make([]string, len(v))
		for i := range v {
			parts[i] = fmt.Sprint(v[i])
		}

		return strings.Join(parts, ","), true
	default:
		return strings.TrimSpace(fmt.Sprint(v)), true
	}
}

func (c *fileConfig) lookupSlice(key string) ([]string, bool) {
	if c == nil || !c.meta.IsDefined(key) {
		return nil, false
	}

	switch v := c.values[key].(type) {
	case []interface{}:
		values := make([]string, len(v))
		for i := range v {
			values[i] = strings.TrimSpace(fmt.Sprint(v[i]))
		}

		return values, true
	default:
		return strings.Split(fmt.Sprint(v), ","), true
	}
}
