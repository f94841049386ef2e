/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"
	"testing"
)

func TestMainPrintsHelp(t *testing.T) {
	args := os.Args
	defer func() { os.Args = args }()

	os.Args = []string{"credex-agent"}

	main()
}
