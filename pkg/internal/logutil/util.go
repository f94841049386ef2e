/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil formats the log lines of controller commands.
package logutil

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"
)

// LogError logs a failed command. data holds key=[value] pairs built with CreateKeyValueString.
func LogError(logger *log.Log, command, action, errMsg string, data ...string) {
	logger.Errorf("%s errMsg=[%s]", prefix(command, action, data), errMsg)
}

// LogDebug logs a command at debug level.
func LogDebug(logger *log.Log, command, action, msg string, data ...string) {
	logger.Debugf("%s msg=[%s]", prefix(command, action, data), msg)
}

// LogInfo logs a command at info level.
func LogInfo(logger *log.Log, command, action, msg string, data ...string) {
	logger.Infof("%s msg=[%s]", prefix(command, action, data), msg)
}

// CreateKeyValueString renders key=[val].
func CreateKeyValueString(key, val string) string {
	return fmt.Sprintf("%s=[%s]", key, val)
}

func prefix(command, action string, data []string) string {
	p := CreateKeyValueString("command", command) + " " + CreateKeyValueString("action", action)

	if len(data) == 0 {
		return p
	}

	return p + " " + strings.Join(data, " ")
}
