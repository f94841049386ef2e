/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webhook

import "sync"

// Notification is one call recorded by Notifier.
type Notification struct {
	Topic   string
	Message []byte
}

// Notifier records notifications. NotifyFunc, when set, decides the result of Notify.
type Notifier struct {
	NotifyFunc func(topic string, message []byte) error

	mu   sync.Mutex
	sent []Notification
}

// NewMockWebhookNotifier returns a recording notifier.
func NewMockWebhookNotifier() *Notifier {
	return &Notifier{}
}

// Notify records the notification.
func (n *Notifier) Notify(topic string, message []byte) error {
	n.mu.Lock()
	n.sent = append(n.sent, Notification{Topic: topic, Message: message})
	n.mu.Unlock()

	if n.NotifyFunc != nil {
		return n.NotifyFunc(topic, message)
	}

	return nil
}

// Notifications returns the notifications received so far on topic.
func (n *Notifier) Notifications(topic string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []Notification

	for _, s := range n.sent {
		if s.Topic == topic {
			out = append(out, s)
		}
	}

	return out
}
