/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
)

const (
	preState  = "pre_state"
	postState = "post_state"
)

// Notifier represents a notification dispatcher.
type Notifier interface {
	Notify(topic string, message []byte) error
}

// StateMsg is the JSON form of a service.StateMsg.
type StateMsg struct {
	ProtocolName string                 `json:"protocolName"`
	StateID      string                 `json:"stateID"`
	Type         string                 `json:"type"`
	Message      service.DIDCommMsgMap  `json:"message,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// Observer forwards protocol events to a Notifier.
type Observer struct {
	notifier Notifier
}

// NewObserver returns a new Observer.
func NewObserver(notifier Notifier) *Observer {
	return &Observer{notifier: notifier}
}

// RegisterStateMsg forwards every state message read from ch under topic until ch is closed.
func (o *Observer) RegisterStateMsg(topic string, ch <-chan service.StateMsg) {
	go func() {
		for msg := range ch {
			o.notify(topic, toStateMsg(msg))
		}
	}()
}

func toStateMsg(msg service.StateMsg) StateMsg {
	res := StateMsg{
		ProtocolName: msg.ProtocolName,
		StateID:      msg.StateID,
		Type:         postState,
		Message:      msg.Msg.Clone(),
	}

	if msg.Type == service.PreState {
		res.Type = preState
	}

	if msg.Properties != nil {
		res.Properties = msg.Properties.All()
	}

	return res
}

func (o *Observer) notify(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("observer marshal %s: %v", topic, err)

		return
	}

	if err = o.notifier.Notify(topic, payload); err != nil {
		logger.Errorf("observer notify %s: %v", topic, err)
	}
}
