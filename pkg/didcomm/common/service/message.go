/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"context"
	"sync"

	"golang.org/x/exp/slices"
)

// Message keeps the channels subscribed to state events. It is safe for concurrent use.
type Message struct {
	mu     sync.RWMutex
	events []chan<- StateMsg
}

// MsgEvents returns a copy of the subscribed channels in registration order.
func (m *Message) MsgEvents() []chan<- StateMsg {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.events)
}

// RegisterMsgEvent subscribes ch to state events. A channel registered twice receives every event twice.
func (m *Message) RegisterMsgEvent(ch chan<- StateMsg) error {
	if ch == nil {
		return ErrNilChannel
	}

	m.mu.Lock()
	m.events = append(m.events, ch)
	m.mu.Unlock()

	return nil
}

// UnregisterMsgEvent removes every subscription of ch.
func (m *Message) UnregisterMsgEvent(ch chan<- StateMsg) error {
	m.mu.Lock()
	m.events = slices.DeleteFunc(m.events, func(c chan<- StateMsg) bool { return c == ch })
	m.mu.Unlock()

	return nil
}

// Publish sends msg to every registered channel in registration order.
// A slow consumer blocks the publisher until ctx is done.
func (m *Message) Publish(ctx context.Context, msg StateMsg) error {
	for _, ch := range m.MsgEvents() {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
