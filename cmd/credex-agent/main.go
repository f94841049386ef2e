/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credex-agent Credential Exchange Agent.
//
// REST controller for issuing and receiving verifiable credentials over the DIDComm issue-credential protocol.
//
//	Schemes: http, https
//	Version: 0.1.0
//	License: SPDX-License-Identifier: Apache-2.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package main

import (
	"os"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-credential-exchange/cmd/credex-agent/startcmd"
)

var logger = log.New("credex/agent")

func main() {
	root := &cobra.Command{
		Use:   "credex-agent",
		Short: "Credential exchange agent",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	start, err := startcmd.Cmd(&startcmd.HTTPServer{})
	if err != nil {
		logger.Errorf("create start command: %s", err)
		os.Exit(1)
	}

	root.AddCommand(start)

	if err := root.Execute(); err != nil {
		logger.Errorf("credex-agent: %s", err)
		os.Exit(1)
	}
}
