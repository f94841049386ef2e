/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hyperledger/aries-credential-exchange/pkg/controller/command"
	cmd "github.com/hyperledger/aries-credential-exchange/pkg/controller/command/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-credential-exchange/pkg/controller/rest"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

const (
	operationID            = "/issuecredential"
	sendProposal           = operationID + "/send-proposal"
	sendOffer              = operationID + "/send-offer"
	sendRequest            = operationID + "/send-request"
	acceptProposal         = operationID + "/{piid}/accept-proposal"
	negotiateProposal      = operationID + "/{piid}/negotiate-proposal"
	acceptOffer            = operationID + "/{piid}/accept-offer"
	negotiateOffer         = operationID + "/{piid}/negotiate-offer"
	declineOffer           = operationID + "/{piid}/decline-offer"
	acceptRequest          = operationID + "/{piid}/accept-request"
	acceptCredential       = operationID + "/{piid}/accept-credential"
	sendProblemReport      = operationID + "/{piid}/send-problem-report"
	revocationNotification = operationID + "/revocation-notification"
	records                = operationID + "/records"
	record                 = records + "/{piid}"
	formatData             = record + "/format-data"
)

// Operation is controller REST service controller for issue credential.
type Operation struct {
	command  *cmd.Command
	handlers []rest.Handler
}

// New returns new issue credential rest client protocol instance.
func New(ctx cmd.Provider, notifier command.Notifier) (*Operation, error) {
	c, err := cmd.New(ctx, notifier)
	if err != nil {
		return nil, fmt.Errorf("issue credential command : %w", err)
	}

	o := &Operation{command: c}
	o.registerHandler()

	return o, nil
}

// GetRESTHandlers get all controller API handler available for this protocol service.
func (c *Operation) GetRESTHandlers() []rest.Handler {
	return c.handlers
}

// registerHandler register handlers to be exposed from this protocol service as REST API endpoints.
func (c *Operation) registerHandler() {
	c.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(sendProposal, http.MethodPost, c.SendProposal),
		cmdutil.NewHTTPHandler(sendOffer, http.MethodPost, c.SendOffer),
		cmdutil.NewHTTPHandler(sendRequest, http.MethodPost, c.SendRequest),
		cmdutil.NewHTTPHandler(acceptProposal, http.MethodPost, c.AcceptProposal),
		cmdutil.NewHTTPHandler(negotiateProposal, http.MethodPost, c.NegotiateProposal),
		cmdutil.NewHTTPHandler(acceptOffer, http.MethodPost, c.AcceptOffer),
		cmdutil.NewHTTPHandler(negotiateOffer, http.MethodPost, c.NegotiateOffer),
		cmdutil.NewHTTPHandler(declineOffer, http.MethodPost, c.DeclineOffer),
		cmdutil.NewHTTPHandler(acceptRequest, http.MethodPost, c.AcceptRequest),
		cmdutil.NewHTTPHandler(acceptCredential, http.MethodPost, c.AcceptCredential),
		cmdutil.NewHTTPHandler(sendProblemReport, http.MethodPost, c.SendProblemReport),
		cmdutil.NewHTTPHandler(revocationNotification, http.MethodPost, c.ProcessRevocationNotification),
		cmdutil.NewHTTPHandler(records, http.MethodGet, c.FindRecords),
		cmdutil.NewHTTPHandler(formatData, http.MethodGet, c.GetFormatData),
		cmdutil.NewHTTPHandler(record, http.MethodGet, c.GetRecord),
		cmdutil.NewHTTPHandler(record, http.MethodDelete, c.DeleteRecord),
	}
}

// SendProposal swagger:route POST /issuecredential/send-proposal issue-credential issueCredentialSendProposal
//
// Sends a proposal.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) SendProposal(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SendProposal, rw, req.Body)
}

// SendOffer swagger:route POST /issuecredential/send-offer issue-credential issueCredentialSendOffer
//
// Sends an offer.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) SendOffer(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SendOffer, rw, req.Body)
}

// SendRequest swagger:route POST /issuecredential/send-request issue-credential issueCredentialSendRequest
//
// Sends a request.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) SendRequest(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SendRequest, rw, req.Body)
}

// AcceptProposal swagger:route POST /issuecredential/{piid}/accept-proposal issue-credential issueCredentialAcceptProposal
//
// Accepts a proposal.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) AcceptProposal(rw http.ResponseWriter, req *http.Request) {
	c.executeWithPIID(c.command.AcceptProposal, rw, req)
}

// NegotiateProposal swagger:route POST /issuecredential/{piid}/negotiate-proposal issue-credential issueCredentialNegotiateProposal
//
// Answers a proposal with a different offer.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) NegotiateProposal(rw http.ResponseWriter, req *http.Request) {
	c.executeWithPIID(c.command.NegotiateProposal, rw, req)
}

// AcceptOffer swagger:route POST /issuecredential/{piid}/accept-offer issue-credential issueCredentialAcceptOffer
//
// Accepts an offer.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) AcceptOffer(rw http.ResponseWriter, req *http.Request) {
	c.executeWithPIID(c.command.AcceptOffer, rw, req)
}

// NegotiateOffer swagger:route POST /issuecredential/{piid}/negotiate-offer issue-credential issueCredentialNegotiateOffer
//
// Answers an offer with a counter proposal.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) NegotiateOffer(rw http.ResponseWriter, req *http.Request) {
	c.executeWithPIID(c.command.NegotiateOffer, rw, req)
}

// DeclineOffer swagger:route POST /issuecredential/{piid}/decline-offer issue-credential issueCredentialDeclineOffer
//
// Declines an offer.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) DeclineOffer(rw http.ResponseWriter, req *http.Request) {
	c.executeWithPIID(c.command.DeclineOffer, rw, req)
}

// AcceptRequest swagger:route POST /issuecredential/{piid}/accept-request issue-credential issueCredentialAcceptRequest
//
// Accepts a request.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) AcceptRequest(rw http.ResponseWriter, req *http.Request) {
	c.executeWithPIID(c.command.AcceptRequest, rw, req)
}

// AcceptCredential swagger:route POST /issuecredential/{piid}/accept-credential issue-credential issueCredentialAcceptCredential
//
// Accepts a credential.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) AcceptCredential(rw http.ResponseWriter, req *http.Request) {
	c.executeWithPIID(c.command.AcceptCredential, rw, req)
}

// SendProblemReport swagger:route POST /issuecredential/{piid}/send-problem-report issue-credential issueCredentialSendProblemReport
//
// Abandons an exchange.
//
// Responses:
//    default: genericError
//        200: issueCredentialEmptyResponse
func (c *Operation) SendProblemReport(rw http.ResponseWriter, req *http.Request) {
	c.executeWithPIID(c.command.SendProblemReport, rw, req)
}

// ProcessRevocationNotification swagger:route POST /issuecredential/revocation-notification issue-credential issueCredentialRevocationNotification
//
// Records the revocation of a received credential.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) ProcessRevocationNotification(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.ProcessRevocationNotification, rw, req.Body)
}

// FindRecords swagger:route GET /issuecredential/records issue-credential issueCredentialFindRecords
//
// Returns the exchanges matching the query parameters.
//
// Responses:
//    default: genericError
//        200: issueCredentialFindRecordsResponse
func (c *Operation) FindRecords(rw http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	c.executeArgs(c.command.FindRecords, rw, cmd.FindRecordsArgs{
		ThreadID:           q.Get("thread_id"),
		Role:               credentialexchange.Role(q.Get("role")),
		ConnectionID:       q.Get("connection_id"),
		CredentialRecordID: q.Get("credential_record_id"),
	})
}

// GetRecord swagger:route GET /issuecredential/records/{piid} issue-credential issueCredentialGetRecord
//
// Returns an exchange.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) GetRecord(rw http.ResponseWriter, req *http.Request) {
	c.executeArgs(c.command.GetRecord, rw, cmd.PIIDArgs{PIID: mux.Vars(req)["piid"]})
}

// GetFormatData swagger:route GET /issuecredential/records/{piid}/format-data issue-credential issueCredentialGetFormatData
//
// Returns the format payloads of an exchange.
//
// Responses:
//    default: genericError
//        200: issueCredentialFormatDataResponse
func (c *Operation) GetFormatData(rw http.ResponseWriter, req *http.Request) {
	c.executeArgs(c.command.GetFormatData, rw, cmd.PIIDArgs{PIID: mux.Vars(req)["piid"]})
}

// DeleteRecord swagger:route DELETE /issuecredential/records/{piid} issue-credential issueCredentialDeleteRecord
//
// Deletes an exchange.
//
// Responses:
//    default: genericError
//        200: issueCredentialEmptyResponse
func (c *Operation) DeleteRecord(rw http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	c.executeArgs(c.command.DeleteRecord, rw, cmd.DeleteRecordArgs{
		PIID:            mux.Vars(req)["piid"],
		KeepCredentials: q.Get("keep_credentials") == "true",
		KeepMessages:    q.Get("keep_messages") == "true",
	})
}

// executeWithPIID runs exec on the request body with the piid of the path added to it.
func (c *Operation) executeWithPIID(exec command.Exec, rw http.ResponseWriter, req *http.Request) {
	body := map[string]json.RawMessage{}

	if req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmd.InvalidRequestErrorCode, err)
			return
		}

		if len(bytes.TrimSpace(raw)) > 0 {
			if err = json.Unmarshal(raw, &body); err != nil {
				rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmd.InvalidRequestErrorCode,
					fmt.Errorf("payload is not a JSON object: %w", err))
				return
			}
		}
	}

	piid, err := json.Marshal(mux.Vars(req)["piid"])
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmd.InvalidRequestErrorCode, err)
		return
	}

	body["piid"] = piid

	c.executeArgs(exec, rw, body)
}

func (c *Operation) executeArgs(exec command.Exec, rw http.ResponseWriter, args interface{}) {
	raw, err := json.Marshal(args)
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusInternalServerError, cmd.InvalidRequestErrorCode, err)
		return
	}

	rest.Execute(exec, rw, bytes.NewReader(raw))
}
