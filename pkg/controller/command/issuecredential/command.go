/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-credential-exchange/pkg/client/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/controller/command"
	"github.com/hyperledger/aries-credential-exchange/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-credential-exchange/pkg/controller/webnotifier"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/common/service"
	protocol "github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credential-exchange/pkg/internal/logutil"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/connection"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

var logger = log.New("credex/controller/issuecredential")

const (
	// InvalidRequestErrorCode is typically a code for validation errors
	// for invalid issue credential controller requests.
	InvalidRequestErrorCode = command.Code(iota + command.IssueCredential)
	// SendProposalErrorCode failures in send proposal command.
	SendProposalErrorCode
	// SendOfferErrorCode failures in send offer command.
	SendOfferErrorCode
	// SendRequestErrorCode failures in send request command.
	SendRequestErrorCode
	// AcceptProposalErrorCode is for failures in accept proposal command.
	AcceptProposalErrorCode
	// NegotiateProposalErrorCode is for failures in negotiate proposal command.
	NegotiateProposalErrorCode
	// AcceptOfferErrorCode is for failures in accept offer command.
	AcceptOfferErrorCode
	// NegotiateOfferErrorCode is for failures in negotiate offer command.
	NegotiateOfferErrorCode
	// DeclineOfferErrorCode is for failures in decline offer command.
	DeclineOfferErrorCode
	// AcceptRequestErrorCode is for failures in accept request command.
	AcceptRequestErrorCode
	// AcceptCredentialErrorCode is for failures in accept credential command.
	AcceptCredentialErrorCode
	// SendProblemReportErrorCode is for failures in send problem report command.
	SendProblemReportErrorCode
	// RevocationNotificationErrorCode is for failures in process revocation notification command.
	RevocationNotificationErrorCode
	// GetRecordErrorCode is for failures in get record command.
	GetRecordErrorCode
	// FindRecordsErrorCode is for failures in find records command.
	FindRecordsErrorCode
	// GetFormatDataErrorCode is for failures in get format data command.
	GetFormatDataErrorCode
	// DeleteRecordErrorCode is for failures in delete record command.
	DeleteRecordErrorCode
)

// constants for issue credential commands.
const (
	// command name.
	CommandName = "issuecredential"

	SendProposal           = "SendProposal"
	SendOffer              = "SendOffer"
	SendRequest            = "SendRequest"
	AcceptProposal         = "AcceptProposal"
	NegotiateProposal      = "NegotiateProposal"
	AcceptOffer            = "AcceptOffer"
	NegotiateOffer         = "NegotiateOffer"
	DeclineOffer           = "DeclineOffer"
	AcceptRequest          = "AcceptRequest"
	AcceptCredential       = "AcceptCredential"
	SendProblemReport      = "SendProblemReport"
	RevocationNotification = "ProcessRevocationNotification"
	GetRecord              = "GetRecord"
	FindRecords            = "FindRecords"
	GetFormatData          = "GetFormatData"
	DeleteRecord           = "DeleteRecord"
)

const (
	// error messages.
	errEmptyPIID               = "empty PIID"
	errEmptyFormats            = "empty Formats"
	errEmptyPeer               = "empty ConnectionID and DIDs"
	errEmptyTheirDID           = "empty TheirDID"
	errEmptyDescription        = "empty Description"
	errEmptyCredentialRecordID = "empty CredentialRecordID"
	errMissingConnection       = "no connection for given DIDs"
	// log constants.
	successString = "success"

	_states = "_states"
)

// Provider contains dependencies for the issuecredential command and is typically the framework.
type Provider interface {
	IssueCredentialClient() *issuecredential.Client
	ConnectionLookup() *connection.Lookup
}

// Command is controller command for issue credential.
type Command struct {
	client *issuecredential.Client
	lookup *connection.Lookup
}

// New returns new issue credential controller command instance.
func New(ctx Provider, notifier command.Notifier) (*Command, error) {
	client := ctx.IssueCredentialClient()
	if client == nil {
		return nil, errors.New("cannot create a command without client")
	}

	// creates state channel
	states := make(chan service.StateMsg)
	// registers state channel to listen for events
	if err := client.RegisterMsgEvent(states); err != nil {
		return nil, fmt.Errorf("register msg event: %w", err)
	}

	obs := webnotifier.NewObserver(notifier)
	obs.RegisterStateMsg(protocol.Name+_states, states)

	return &Command{
		client: client,
		lookup: ctx.ConnectionLookup(),
	}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, SendProposal, c.SendProposal),
		cmdutil.NewCommandHandler(CommandName, SendOffer, c.SendOffer),
		cmdutil.NewCommandHandler(CommandName, SendRequest, c.SendRequest),
		cmdutil.NewCommandHandler(CommandName, AcceptProposal, c.AcceptProposal),
		cmdutil.NewCommandHandler(CommandName, NegotiateProposal, c.NegotiateProposal),
		cmdutil.NewCommandHandler(CommandName, AcceptOffer, c.AcceptOffer),
		cmdutil.NewCommandHandler(CommandName, NegotiateOffer, c.NegotiateOffer),
		cmdutil.NewCommandHandler(CommandName, DeclineOffer, c.DeclineOffer),
		cmdutil.NewCommandHandler(CommandName, AcceptRequest, c.AcceptRequest),
		cmdutil.NewCommandHandler(CommandName, AcceptCredential, c.AcceptCredential),
		cmdutil.NewCommandHandler(CommandName, SendProblemReport, c.SendProblemReport),
		cmdutil.NewCommandHandler(CommandName, RevocationNotification, c.ProcessRevocationNotification),
		cmdutil.NewCommandHandler(CommandName, GetRecord, c.GetRecord),
		cmdutil.NewCommandHandler(CommandName, FindRecords, c.FindRecords),
		cmdutil.NewCommandHandler(CommandName, GetFormatData, c.GetFormatData),
		cmdutil.NewCommandHandler(CommandName, DeleteRecord, c.DeleteRecord),
	}
}

// SendProposal is used by the Holder to send a proposal.
func (c *Command) SendProposal(rw io.Writer, req io.Reader) command.Error {
	var args SendProposalArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, SendProposal, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if len(args.Formats) == 0 {
		logutil.LogDebug(logger, CommandName, SendProposal, errEmptyFormats)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyFormats))
	}

	connID, opts, cmdErr := c.resolveNew(SendProposal, args.Peer, args.ProtocolVersion)
	if cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.SendProposal(context.Background(), &protocol.CreateProposalParams{
		ConnectionID:   connID,
		ParentThreadID: args.ParentThreadID,
		Formats:        args.Formats,
		Attributes:     args.Attributes,
		Comment:        args.Comment,
		AutoAccept:     args.AutoAccept,
	}, opts...)

	return c.writeRecord(rw, SendProposal, SendProposalErrorCode, rec, err)
}

// SendOffer is used by the Issuer to send an offer.
func (c *Command) SendOffer(rw io.Writer, req io.Reader) command.Error {
	var args SendOfferArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, SendOffer, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if len(args.Formats) == 0 {
		logutil.LogDebug(logger, CommandName, SendOffer, errEmptyFormats)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyFormats))
	}

	connID, opts, cmdErr := c.resolveNew(SendOffer, args.Peer, args.ProtocolVersion)
	if cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.SendOffer(context.Background(), &protocol.CreateOfferParams{
		ConnectionID:   connID,
		ParentThreadID: args.ParentThreadID,
		Formats:        args.Formats,
		Attributes:     args.Attributes,
		Comment:        args.Comment,
		AutoAccept:     args.AutoAccept,
	}, opts...)

	return c.writeRecord(rw, SendOffer, SendOfferErrorCode, rec, err)
}

// SendRequest is used by the Holder to send a request.
func (c *Command) SendRequest(rw io.Writer, req io.Reader) command.Error {
	var args SendRequestArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, SendRequest, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if len(args.Formats) == 0 {
		logutil.LogDebug(logger, CommandName, SendRequest, errEmptyFormats)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyFormats))
	}

	connID, opts, cmdErr := c.resolveNew(SendRequest, args.Peer, args.ProtocolVersion)
	if cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.SendRequest(context.Background(), &protocol.CreateRequestParams{
		ConnectionID:   connID,
		ParentThreadID: args.ParentThreadID,
		Formats:        args.Formats,
		Comment:        args.Comment,
		AutoAccept:     args.AutoAccept,
	}, opts...)

	return c.writeRecord(rw, SendRequest, SendRequestErrorCode, rec, err)
}

// AcceptProposal is used when the Issuer is willing to accept the proposal.
func (c *Command) AcceptProposal(rw io.Writer, req io.Reader) command.Error {
	var args AcceptProposalArgs

	if cmdErr := decodePIID(req, &args, AcceptProposal, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.AcceptProposal(context.Background(), &protocol.AcceptProposalParams{
		RecordID:   args.PIID,
		Formats:    args.Formats,
		Attributes: args.Attributes,
		Comment:    args.Comment,
		AutoAccept: args.AutoAccept,
	}, actionOpts(args.Peer)...)

	return c.writeRecord(rw, AcceptProposal, AcceptProposalErrorCode, rec, err)
}

// NegotiateProposal is used when the Issuer answers a proposal with a different offer.
func (c *Command) NegotiateProposal(rw io.Writer, req io.Reader) command.Error {
	var args NegotiateProposalArgs

	if cmdErr := decodePIID(req, &args, NegotiateProposal, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	if len(args.Formats) == 0 {
		logutil.LogDebug(logger, CommandName, NegotiateProposal, errEmptyFormats)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyFormats))
	}

	rec, err := c.client.NegotiateProposal(context.Background(), &protocol.NegotiateProposalParams{
		RecordID:   args.PIID,
		Formats:    args.Formats,
		Attributes: args.Attributes,
		Comment:    args.Comment,
		AutoAccept: args.AutoAccept,
	}, actionOpts(args.Peer)...)

	return c.writeRecord(rw, NegotiateProposal, NegotiateProposalErrorCode, rec, err)
}

// AcceptOffer is used when the Holder is willing to accept the offer.
func (c *Command) AcceptOffer(rw io.Writer, req io.Reader) command.Error {
	var args AcceptOfferArgs

	if cmdErr := decodePIID(req, &args, AcceptOffer, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.AcceptOffer(context.Background(), &protocol.AcceptOfferParams{
		RecordID:   args.PIID,
		Formats:    args.Formats,
		Comment:    args.Comment,
		AutoAccept: args.AutoAccept,
	}, actionOpts(args.Peer)...)

	return c.writeRecord(rw, AcceptOffer, AcceptOfferErrorCode, rec, err)
}

// NegotiateOffer is used when the Holder answers an offer with a counter proposal.
func (c *Command) NegotiateOffer(rw io.Writer, req io.Reader) command.Error {
	var args NegotiateOfferArgs

	if cmdErr := decodePIID(req, &args, NegotiateOffer, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	if len(args.Formats) == 0 {
		logutil.LogDebug(logger, CommandName, NegotiateOffer, errEmptyFormats)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyFormats))
	}

	rec, err := c.client.NegotiateOffer(context.Background(), &protocol.NegotiateOfferParams{
		RecordID:   args.PIID,
		Formats:    args.Formats,
		Attributes: args.Attributes,
		Comment:    args.Comment,
		AutoAccept: args.AutoAccept,
	}, actionOpts(args.Peer)...)

	return c.writeRecord(rw, NegotiateOffer, NegotiateOfferErrorCode, rec, err)
}

// DeclineOffer is used when the Holder does not want to accept the offer.
func (c *Command) DeclineOffer(rw io.Writer, req io.Reader) command.Error {
	var args PIIDArgs

	if cmdErr := decodePIID(req, &args, DeclineOffer, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.DeclineOffer(context.Background(), args.PIID)

	return c.writeRecord(rw, DeclineOffer, DeclineOfferErrorCode, rec, err)
}

// AcceptRequest is used when the Issuer is willing to issue the requested credential.
func (c *Command) AcceptRequest(rw io.Writer, req io.Reader) command.Error {
	var args AcceptRequestArgs

	if cmdErr := decodePIID(req, &args, AcceptRequest, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.AcceptRequest(context.Background(), &protocol.AcceptRequestParams{
		RecordID:   args.PIID,
		Formats:    args.Formats,
		Comment:    args.Comment,
		AutoAccept: args.AutoAccept,
	}, actionOpts(args.Peer)...)

	return c.writeRecord(rw, AcceptRequest, AcceptRequestErrorCode, rec, err)
}

// AcceptCredential is used when the Holder keeps the issued credential.
func (c *Command) AcceptCredential(rw io.Writer, req io.Reader) command.Error {
	var args PIIDArgs

	if cmdErr := decodePIID(req, &args, AcceptCredential, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.AcceptCredential(context.Background(), args.PIID, actionOpts(args.Peer)...)

	return c.writeRecord(rw, AcceptCredential, AcceptCredentialErrorCode, rec, err)
}

// SendProblemReport tells the counterparty that the exchange is abandoned.
func (c *Command) SendProblemReport(rw io.Writer, req io.Reader) command.Error {
	var args SendProblemReportArgs

	if cmdErr := decodePIID(req, &args, SendProblemReport, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	if args.Description == "" {
		logutil.LogDebug(logger, CommandName, SendProblemReport, errEmptyDescription)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyDescription))
	}

	err := c.client.SendProblemReport(context.Background(), args.PIID, args.Description, actionOpts(args.Peer)...)
	if err != nil {
		logutil.LogError(logger, CommandName, SendProblemReport, err.Error())
		return command.NewExecuteError(SendProblemReportErrorCode, err)
	}

	command.WriteNillableResponse(rw, &EmptyResponse{}, logger)

	logutil.LogDebug(logger, CommandName, SendProblemReport, successString,
		logutil.CreateKeyValueString("piid", args.PIID))

	return nil
}

// ProcessRevocationNotification records that the issuer revoked a credential.
func (c *Command) ProcessRevocationNotification(rw io.Writer, req io.Reader) command.Error {
	var args RevocationNotificationArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, RevocationNotification, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.CredentialRecordID == "" {
		logutil.LogDebug(logger, CommandName, RevocationNotification, errEmptyCredentialRecordID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCredentialRecordID))
	}

	rec, err := c.client.ProcessRevocationNotification(context.Background(), &protocol.RevocationNotice{
		CredentialRecordID: args.CredentialRecordID,
		RevocationDate:     args.RevocationDate,
		Comment:            args.Comment,
	})

	return c.writeRecord(rw, RevocationNotification, RevocationNotificationErrorCode, rec, err)
}

// GetRecord returns an exchange.
func (c *Command) GetRecord(rw io.Writer, req io.Reader) command.Error {
	var args PIIDArgs

	if cmdErr := decodePIID(req, &args, GetRecord, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	rec, err := c.client.GetRecord(context.Background(), args.PIID)

	return c.writeRecord(rw, GetRecord, GetRecordErrorCode, rec, err)
}

// FindRecords returns the exchanges matching a query.
func (c *Command) FindRecords(rw io.Writer, req io.Reader) command.Error {
	var args FindRecordsArgs

	if req != nil {
		if err := json.NewDecoder(req).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
			logutil.LogInfo(logger, CommandName, FindRecords, err.Error())
			return command.NewValidationError(InvalidRequestErrorCode, err)
		}
	}

	recs, err := c.client.FindRecords(context.Background(), credentialexchange.Query{
		ThreadID:           args.ThreadID,
		Role:               args.Role,
		ConnectionID:       args.ConnectionID,
		CredentialRecordID: args.CredentialRecordID,
	})
	if err != nil {
		logutil.LogError(logger, CommandName, FindRecords, err.Error())
		return command.NewExecuteError(FindRecordsErrorCode, err)
	}

	if recs == nil {
		recs = []credentialexchange.Record{}
	}

	command.WriteNillableResponse(rw, &FindRecordsResponse{Records: recs}, logger)

	logutil.LogDebug(logger, CommandName, FindRecords, successString)

	return nil
}

// GetFormatData returns the format payloads of an exchange.
func (c *Command) GetFormatData(rw io.Writer, req io.Reader) command.Error {
	var args PIIDArgs

	if cmdErr := decodePIID(req, &args, GetFormatData, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	data, err := c.client.GetFormatData(context.Background(), args.PIID)
	if err != nil {
		logutil.LogError(logger, CommandName, GetFormatData, err.Error())
		return command.NewExecuteError(GetFormatDataErrorCode, err)
	}

	command.WriteNillableResponse(rw, &FormatDataResponse{FormatData: data}, logger)

	logutil.LogDebug(logger, CommandName, GetFormatData, successString)

	return nil
}

// DeleteRecord removes an exchange.
func (c *Command) DeleteRecord(rw io.Writer, req io.Reader) command.Error {
	var args DeleteRecordArgs

	if cmdErr := decodePIID(req, &args, DeleteRecord, func() string { return args.PIID }); cmdErr != nil {
		return cmdErr
	}

	err := c.client.Delete(context.Background(), args.PIID,
		protocol.WithDeleteAssociatedCredentials(!args.KeepCredentials),
		protocol.WithDeleteAssociatedMessages(!args.KeepMessages))
	if err != nil {
		logutil.LogError(logger, CommandName, DeleteRecord, err.Error())
		return command.NewExecuteError(DeleteRecordErrorCode, err)
	}

	command.WriteNillableResponse(rw, &EmptyResponse{}, logger)

	logutil.LogDebug(logger, CommandName, DeleteRecord, successString,
		logutil.CreateKeyValueString("piid", args.PIID))

	return nil
}

// resolveNew finds the connection of a new exchange, or the destination of a connection-less one.
func (c *Command) resolveNew(action string, peer Peer,
	version string) (string, []issuecredential.ActionOpt, command.Error) {
	var opts []issuecredential.ActionOpt

	if version != "" {
		opts = append(opts, issuecredential.WithProtocolVersion(protocol.Version(version)))
	}

	switch {
	case peer.Connectionless:
		if peer.TheirDID == "" {
			logutil.LogDebug(logger, CommandName, action, errEmptyTheirDID)
			return "", nil, command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyTheirDID))
		}

		return "", append(opts, issuecredential.WithConnectionless(peer.MyDID, peer.TheirDID)), nil
	case peer.ConnectionID != "":
		return peer.ConnectionID, opts, nil
	case peer.MyDID != "" && peer.TheirDID != "":
		connID, err := c.lookup.GetConnectionIDByDIDs(peer.MyDID, peer.TheirDID)
		if err != nil {
			logutil.LogDebug(logger, CommandName, action, errMissingConnection)
			return "", nil, command.NewValidationError(InvalidRequestErrorCode, errors.New(errMissingConnection))
		}

		return connID, opts, nil
	default:
		logutil.LogDebug(logger, CommandName, action, errEmptyPeer)
		return "", nil, command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyPeer))
	}
}

func actionOpts(peer Peer) []issuecredential.ActionOpt {
	if !peer.Connectionless || peer.TheirDID == "" {
		return nil
	}

	return []issuecredential.ActionOpt{issuecredential.WithConnectionless(peer.MyDID, peer.TheirDID)}
}

func decodePIID(req io.Reader, args interface{}, action string, piid func() string) command.Error {
	if err := json.NewDecoder(req).Decode(args); err != nil {
		logutil.LogInfo(logger, CommandName, action, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if piid() == "" {
		logutil.LogDebug(logger, CommandName, action, errEmptyPIID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyPIID))
	}

	return nil
}

func (c *Command) writeRecord(rw io.Writer, action string, code command.Code, rec credentialexchange.Record,
	err error) command.Error {
	if err != nil {
		logutil.LogError(logger, CommandName, action, err.Error())
		return command.NewExecuteError(code, err)
	}

	command.WriteNillableResponse(rw, &RecordResponse{Record: rec}, logger)

	logutil.LogDebug(logger, CommandName, action, successString,
		logutil.CreateKeyValueString("piid", rec.ID))

	return nil
}
