/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package aries

import (
	"fmt"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format/jsonld"
	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format/jwtvc"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/dispatcher/outbound"
	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	arieshttp "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/transport/http"
)

// defFrameworkOpts provides default framework options.
func defFrameworkOpts(frameworkOpts *Aries) error {
	if len(frameworkOpts.outboundTransports) == 0 {
		outbound, err := arieshttp.NewOutbound(arieshttp.WithOutboundHTTPClient(&http.Client{}))
		if err != nil {
			return fmt.Errorf("http outbound transport initialization failed: %w", err)
		}

		frameworkOpts.outboundTransports = append(frameworkOpts.outboundTransports, outbound)
	}

	if frameworkOpts.storeProvider == nil {
		frameworkOpts.storeProvider = mem.NewProvider()
	}

	if frameworkOpts.endpoints == nil {
		frameworkOpts.endpoints = outbound.StaticEndpoints{}
	}

	if len(frameworkOpts.formatCreators) == 0 {
		frameworkOpts.formatCreators = []FormatPluginCreator{newJWTVCFormat(), newJSONLDFormat()}
	}

	if len(frameworkOpts.versions) == 0 {
		frameworkOpts.versions = []protocol.Version{protocol.V1, protocol.V2}
	}

	return nil
}

func newJWTVCFormat() FormatPluginCreator {
	return func(p storage.Provider) (format.Plugin, error) {
		return jwtvc.New(p)
	}
}

func newJSONLDFormat() FormatPluginCreator {
	return func(p storage.Provider) (format.Plugin, error) {
		return jsonld.New(p)
	}
}
