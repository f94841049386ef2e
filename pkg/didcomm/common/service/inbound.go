/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

// InboundContext describes how a message reached the agent. ConnectionID is empty for connection-less messages.
type InboundContext struct {
	ConnectionID string `json:"connectionId,omitempty"`
	MyDID        string `json:"myDid,omitempty"`
	TheirDID     string `json:"theirDid,omitempty"`
}
