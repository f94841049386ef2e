/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/transport"
)

var logger = log.New("credex/didcomm/dispatcher")

// ErrNoEndpoint is returned when the service endpoint of a DID is unknown.
var ErrNoEndpoint = errors.New("no service endpoint for DID")

// EndpointResolver resolves the service endpoint of a DID.
type EndpointResolver interface {
	Endpoint(did string) (string, error)
}

// StaticEndpoints resolves endpoints from a fixed DID to URL map.
type StaticEndpoints map[string]string

// Endpoint returns the configured endpoint of did.
func (s StaticEndpoints) Endpoint(did string) (string, error) {
	ep, ok := s[did]
	if !ok || ep == "" {
		return "", fmt.Errorf("%w %s", ErrNoEndpoint, did)
	}

	return ep, nil
}

// Dispatcher dispatch msgs to destination.
type Dispatcher struct {
	outboundTransports []transport.OutboundTransport
	endpoints          EndpointResolver
}

// NewOutbound return new dispatcher outbound instance.
func NewOutbound(endpoints EndpointResolver, transports ...transport.OutboundTransport) (*Dispatcher, error) {
	if endpoints == nil {
		return nil, errors.New("endpoint resolver is required")
	}

	if len(transports) == 0 {
		return nil, errors.New("at least one outbound transport is required")
	}

	return &Dispatcher{outboundTransports: transports, endpoints: endpoints}, nil
}

// SendToDID sends a message from myDID to the agent who owns theirDID.
func (o *Dispatcher) SendToDID(ctx context.Context, msg service.DIDCommMsgMap, myDID, theirDID string) error {
	dest, err := o.endpoints.Endpoint(theirDID)
	if err != nil {
		return fmt.Errorf("outboundDispatcher.SendToDID: %w", err)
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("outboundDispatcher.SendToDID marshal message: %w", err)
	}

	data, err := json.Marshal(transport.Envelope{From: myDID, To: theirDID, Message: raw})
	if err != nil {
		return fmt.Errorf("outboundDispatcher.SendToDID marshal envelope: %w", err)
	}

	for _, t := range o.outboundTransports {
		if !t.Accept(dest) {
			continue
		}

		if err = t.Send(ctx, data, dest); err != nil {
			return fmt.Errorf("outboundDispatcher.SendToDID to %s: %w", dest, err)
		}

		logger.Debugf("sent %s to %s at %s", msg.Type(), theirDID, dest)

		return nil
	}

	return fmt.Errorf("outboundDispatcher.SendToDID: no outbound transport accepts %s", dest)
}
