/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/multierr"
	"nhooyr.io/websocket"

	"github.com/hyperledger/aries-credential-exchange/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-credential-exchange/pkg/controller/rest"
)

// topicQueryParam restricts a websocket client to the notifications of one or more topics.
const topicQueryParam = "topic"

// subscriber is a connected websocket client. An empty topic set receives every topic.
type subscriber struct {
	conn   *websocket.Conn
	topics map[string]struct{}
}

func (s *subscriber) wants(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}

	_, ok := s.topics[topic]

	return ok
}

// WSNotifier pushes notifications to websocket clients. Clients may connect with one or more
// "topic" query parameters, for example /ws?topic=issue-credential_states.
type WSNotifier struct {
	mu       sync.RWMutex
	subs     map[*websocket.Conn]*subscriber
	handlers []rest.Handler
}

// NewWSNotifier returns a notifier accepting websocket clients on path.
func NewWSNotifier(path string) *WSNotifier {
	n := &WSNotifier{subs: map[*websocket.Conn]*subscriber{}}

	n.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(path, http.MethodGet, n.handleWS),
	}

	return n
}

// Notify writes the topic message to every client subscribed to topic. Errors of all clients are combined.
func (n *WSNotifier) Notify(topic string, message []byte) error {
	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return err
	}

	var errs error

	for _, s := range n.subscribers(topic) {
		errs = multierr.Append(errs, write(context.Background(), s.conn, topicMsg))
	}

	return errs
}

func (n *WSNotifier) subscribers(topic string) []*subscriber {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var subs []*subscriber

	for _, s := range n.subs {
		if s.wants(topic) {
			subs = append(subs, s)
		}
	}

	return subs
}

func (n *WSNotifier) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.subs)
}

func write(parent context.Context, conn *websocket.Conn, message []byte) error {
	ctx, cancel := context.WithTimeout(parent, notificationSendTimeout)
	defer cancel()

	return conn.Write(ctx, websocket.MessageText, message)
}

func (n *WSNotifier) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Infof("failed to upgrade the websocket notification connection : %v", err)

		return
	}

	s := &subscriber{conn: conn, topics: map[string]struct{}{}}
	for _, topic := range r.URL.Query()[topicQueryParam] {
		s.topics[topic] = struct{}{}
	}

	n.mu.Lock()
	n.subs[conn] = s
	n.mu.Unlock()

	logger.Debugf("websocket notification client connected, topics %v", r.URL.Query()[topicQueryParam])

	n.serve(r.Context(), s)
}

// serve blocks until the client goes away. Clients are not expected to send anything.
func (n *WSNotifier) serve(ctx context.Context, s *subscriber) {
	_, _, err := s.conn.Reader(ctx)
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Debugf("websocket notification client read: %v", err)
	}

	if err = s.conn.Close(websocket.StatusPolicyViolation, "unexpected message"); err != nil {
		logger.Debugf("closing websocket notification client: %v", err)
	}

	n.mu.Lock()
	delete(n.subs, s.conn)
	n.mu.Unlock()

	logger.Debugf("websocket notification client dropped")
}

// GetRESTHandlers returns the handler of the websocket endpoint.
func (n *WSNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}
