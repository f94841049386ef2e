/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
)

// coordinator builds and consumes the formats and attachments of protocol messages.
// It keeps no state between calls.
type coordinator struct {
	registry *format.Registry
	codec    codec
}

type buildParams struct {
	kind       MessageKind
	messageID  string
	rec        *credentialexchange.Record
	plugins    []format.Plugin
	formats    FormatSelection
	attributes []format.Attribute
	comment    string
	// messages already exchanged on the thread
	proposal *Message
	offer    *Message
	request  *Message
	// required must carry a payload for every plugin
	required *Message
}

// build calls the builder of every plugin and assembles one message. Any plugin error aborts the build.
func (c *coordinator) build(ctx context.Context, p *buildParams) (*Message, error) {
	if len(p.plugins) == 0 {
		return nil, fmt.Errorf("%w: no credential format selected for %s", ErrUnsupportedFormat, p.kind)
	}

	if err := c.codec.checkBuild(p.kind, p.plugins); err != nil {
		return nil, err
	}

	msg := &Message{
		Version: c.codec.version(),
		Kind:    p.kind,
		ID:      p.messageID,
		Thread:  decorator.Thread{PID: p.rec.ParentThreadID},
		Comment: p.comment,
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	if p.rec.ThreadID != msg.ID {
		msg.Thread.ID = p.rec.ThreadID
	}

	var preview []format.Attribute

	for _, plugin := range p.plugins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in, err := c.buildInput(p, plugin)
		if err != nil {
			return nil, err
		}

		out, err := buildStep(ctx, plugin, p.kind, in)
		if err != nil {
			return nil, fmt.Errorf("%s: build %s: %w", plugin.Key(), p.kind, err)
		}

		att := out.Attachment
		if att.ID == "" {
			att.ID = in.AttachmentID
		}

		msg.Formats = append(msg.Formats, Format{AttachID: att.ID, Format: out.Format})
		msg.Attachments = append(msg.Attachments, att)

		if preview == nil && len(out.Attributes) > 0 {
			preview = out.Attributes
		}
	}

	if p.kind == KindProposal || p.kind == KindOffer {
		if preview == nil {
			preview = p.attributes
		}

		if preview != nil {
			msg.Preview = &PreviewCredential{Attributes: append([]format.Attribute(nil), preview...)}
		}
	}

	return msg, nil
}

func (c *coordinator) buildInput(p *buildParams, plugin format.Plugin) (*format.BuildInput, error) {
	in := &format.BuildInput{
		ExchangeID:   p.rec.ID,
		ThreadID:     p.rec.ThreadID,
		AttachmentID: c.codec.attachmentID(p.kind),
		Options:      p.formats[plugin.Key()],
		Attributes:   p.attributes,
	}

	if in.AttachmentID == "" {
		in.AttachmentID = uuid.New().String()
	}

	var err error

	if p.required != nil {
		att, e := p.required.attachment(plugin)
		if e != nil {
			return nil, e
		}

		if att == nil {
			return nil, fmt.Errorf("%w: %s has no %s payload", ErrMissingFormatPayload, p.required.Kind, plugin.Key())
		}
	}

	if in.Proposal, err = attachmentFor(p.proposal, plugin); err != nil {
		return nil, err
	}

	if in.Offer, err = attachmentFor(p.offer, plugin); err != nil {
		return nil, err
	}

	if in.Request, err = attachmentFor(p.request, plugin); err != nil {
		return nil, err
	}

	return in, nil
}

func buildStep(ctx context.Context, plugin format.Plugin, kind MessageKind,
	in *format.BuildInput) (*format.BuildOutput, error) {
	switch kind {
	case KindProposal:
		return plugin.BuildProposal(ctx, in)
	case KindOffer:
		return plugin.BuildOffer(ctx, in)
	case KindRequest:
		return plugin.BuildRequest(ctx, in)
	case KindCredential:
		return plugin.BuildCredential(ctx, in)
	default:
		return nil, fmt.Errorf("%s messages carry no credential format", kind)
	}
}

type processParams struct {
	rec *credentialexchange.Record
	msg *Message
	// prior is the message this agent sent that msg answers
	prior    *Message
	proposal *Message
	offer    *Message
	request  *Message
}

// process validates every attachment of msg a registered plugin supports. It returns the bindings of
// the credentials stored while validating an issued credential. When a plugin fails, the credentials
// stored by the plugins before it are deleted again.
func (c *coordinator) process(ctx context.Context, p *processParams) (_ []format.CredentialBinding, err error) {
	plugins := c.registry.ForFormats(p.msg.FormatIDs())
	if len(plugins) == 0 {
		return nil, fmt.Errorf("%w: %s carries formats %v", ErrUnsupportedFormat, p.msg.Kind, p.msg.FormatIDs())
	}

	if p.prior != nil {
		for _, plugin := range c.registry.ForFormats(p.prior.FormatIDs()) {
			if !supports(p.msg, plugin) {
				return nil, fmt.Errorf("%w: %s has no %s payload answering the %s", ErrMissingFormatPayload,
					p.msg.Kind, plugin.Key(), p.prior.Kind)
			}
		}
	}

	var (
		bindings []format.CredentialBinding
		owners   []format.Plugin
	)

	defer func() {
		if err != nil && len(bindings) > 0 {
			err = multierr.Append(err, discardCredentials(ctx, owners, bindings))
		}
	}()

	for _, plugin := range plugins {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		var in *format.ValidateInput

		if in, err = c.validateInput(p, plugin); err != nil {
			return nil, err
		}

		switch p.msg.Kind {
		case KindProposal:
			err = plugin.ValidateProposal(ctx, in)
		case KindOffer:
			err = plugin.ValidateOffer(ctx, in)
		case KindRequest:
			err = plugin.ValidateRequest(ctx, in)
		case KindCredential:
			var binding *format.CredentialBinding

			binding, err = plugin.ValidateCredential(ctx, in)
			if err == nil && binding != nil {
				bindings = append(bindings, *binding)
				owners = append(owners, plugin)
			}
		default:
			err = fmt.Errorf("%s messages carry no credential format", p.msg.Kind)
		}

		if err != nil {
			return nil, fmt.Errorf("%s: validate %s: %w", plugin.Key(), p.msg.Kind, err)
		}
	}

	return bindings, nil
}

func (c *coordinator) validateInput(p *processParams, plugin format.Plugin) (*format.ValidateInput, error) {
	att, err := p.msg.attachment(plugin)
	if err != nil {
		return nil, err
	}

	if att == nil {
		return nil, fmt.Errorf("%w: %s has no %s payload", ErrAttachmentNotFound, p.msg.Kind, plugin.Key())
	}

	in := &format.ValidateInput{ExchangeID: p.rec.ID, Attachment: *att}

	if in.Proposal, err = attachmentFor(p.proposal, plugin); err != nil {
		return nil, err
	}

	if in.Offer, err = attachmentFor(p.offer, plugin); err != nil {
		return nil, err
	}

	if in.Request, err = attachmentFor(p.request, plugin); err != nil {
		return nil, err
	}

	return in, nil
}

// discardCredentials deletes credentials stored during a step that did not complete.
// Cancellation of ctx does not stop the cleanup.
func discardCredentials(ctx context.Context, owners []format.Plugin, bindings []format.CredentialBinding) error {
	ctx = context.WithoutCancel(ctx)

	var err error

	for i, b := range bindings {
		if derr := owners[i].DeleteStoredCredential(ctx, b.CredentialRecordID); derr != nil {
			err = multierr.Append(err, fmt.Errorf("discard %s credential %s: %w", owners[i].Key(),
				b.CredentialRecordID, derr))
		}
	}

	return err
}

// plugins returns the plugins selected by formats, or those supporting the formats of fallback.
func (c *coordinator) plugins(formats FormatSelection, fallback *Message) ([]format.Plugin, error) {
	if len(formats) > 0 {
		return c.registry.Select(formats.Keys())
	}

	if fallback == nil {
		return nil, nil
	}

	return c.registry.ForFormats(fallback.FormatIDs()), nil
}

func supports(m *Message, plugin format.Plugin) bool {
	for _, f := range m.Formats {
		if plugin.SupportsFormat(f.Format) {
			return true
		}
	}

	return false
}
