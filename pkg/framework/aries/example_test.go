/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package aries

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"

	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
)

func Example() {
	agent, err := New(
		WithStoreProvider(mem.NewProvider()),
		WithProtocolVersions(protocol.V2),
	)
	if err != nil {
		fmt.Println("failed to create agent:", err)

		return
	}

	defer agent.Close() //nolint:errcheck

	fmt.Println(agent.IssueCredentialClient().Versions())

	// Output:
	// [v2]
}
