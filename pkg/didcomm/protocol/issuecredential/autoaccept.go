/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-credential-exchange/pkg/credential/format"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/credentialexchange"
	"github.com/hyperledger/aries-credential-exchange/pkg/store/didcommmsg"
)

// ShouldAutoRespondToProposal reports whether a received proposal may be accepted without user interaction.
// In content approved mode the proposal must match the offer sent earlier on the thread.
func (e *Engine) ShouldAutoRespondToProposal(ctx context.Context, rec *credentialexchange.Record) (bool, error) {
	return e.shouldAutoRespond(ctx, rec, KindProposal, KindOffer)
}

// ShouldAutoRespondToOffer reports whether a received offer may be accepted without user interaction.
// In content approved mode the offer must match the proposal sent earlier on the thread.
func (e *Engine) ShouldAutoRespondToOffer(ctx context.Context, rec *credentialexchange.Record) (bool, error) {
	return e.shouldAutoRespond(ctx, rec, KindOffer, KindProposal)
}

// ShouldAutoRespondToRequest reports whether a received request may be accepted without user interaction.
// In content approved mode the request must match the offer sent earlier on the thread.
func (e *Engine) ShouldAutoRespondToRequest(ctx context.Context, rec *credentialexchange.Record) (bool, error) {
	return e.shouldAutoRespond(ctx, rec, KindRequest, KindOffer)
}

// ShouldAutoRespondToCredential reports whether a received credential may be acknowledged without user
// interaction. In content approved mode the credential must match the request sent earlier on the thread.
func (e *Engine) ShouldAutoRespondToCredential(ctx context.Context, rec *credentialexchange.Record) (bool, error) {
	return e.shouldAutoRespond(ctx, rec, KindCredential, KindRequest)
}

// autoAcceptMode resolves the mode of rec: its own, else the engine default, else never.
func (e *Engine) autoAcceptMode(rec *credentialexchange.Record) credentialexchange.AutoAccept {
	if rec.AutoAcceptCredential != "" {
		return rec.AutoAcceptCredential
	}

	if e.autoAccept != "" {
		return e.autoAccept
	}

	return credentialexchange.AutoAcceptNever
}

func (e *Engine) shouldAutoRespond(ctx context.Context, rec *credentialexchange.Record,
	received, reference MessageKind) (bool, error) {
	accepted, err := e.decideAutoRespond(ctx, rec, received, reference)
	if err != nil {
		return false, err
	}

	e.metrics.AutoAccept(e.version, received, accepted)

	return accepted, nil
}

func (e *Engine) decideAutoRespond(ctx context.Context, rec *credentialexchange.Record,
	received, reference MessageKind) (bool, error) {
	switch e.autoAcceptMode(rec) {
	case credentialexchange.AutoAcceptAlways:
		return true, nil
	case credentialexchange.AutoAcceptContentApproved:
	default:
		return false, nil
	}

	ref, err := e.findMessage(rec.ID, reference, didcommmsg.RoleSender)
	if err != nil || ref == nil {
		return false, err
	}

	msg, err := e.findMessage(rec.ID, received, didcommmsg.RoleReceiver)
	if err != nil || msg == nil {
		return false, err
	}

	return e.contentApproved(ctx, ref, msg)
}

// contentApproved reports whether msg carries what ref, sent earlier on the thread, asked for.
func (e *Engine) contentApproved(ctx context.Context, ref, msg *Message) (bool, error) {
	plugins := e.registry.ForFormats(ref.FormatIDs())
	if len(plugins) == 0 {
		return false, nil
	}

	for _, plugin := range plugins {
		a, err := ref.attachment(plugin)
		if err != nil {
			return false, err
		}

		b, err := msg.attachment(plugin)
		if err != nil {
			return false, err
		}

		if a == nil || b == nil {
			return false, nil
		}

		equal, err := plugin.JudgeEquality(ctx, a, b)
		if err != nil {
			return false, err
		}

		if !equal {
			logger.Debugf("%s %s does not match the %s sent", plugin.Key(), msg.Kind, ref.Kind)

			return false, nil
		}
	}

	if !previewHolds(ref.Kind, msg.Kind) {
		return true, nil
	}

	return samePreview(ref.Preview, msg.Preview), nil
}

// previewHolds reports whether both kinds carry a credential preview.
func previewHolds(a, b MessageKind) bool {
	carries := func(k MessageKind) bool { return k == KindProposal || k == KindOffer }

	return carries(a) && carries(b)
}

// samePreview reports whether a and b hold the same attributes in any order. A missing preview only
// matches a missing preview.
func samePreview(a, b *PreviewCredential) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return slices.Equal(sortedAttributes(a.Attributes), sortedAttributes(b.Attributes))
}

func sortedAttributes(attrs []format.Attribute) []format.Attribute {
	sorted := slices.Clone(attrs)

	slices.SortFunc(sorted, func(x, y format.Attribute) int {
		if c := strings.Compare(x.Name, y.Name); c != 0 {
			return c
		}

		if c := strings.Compare(x.Value, y.Value); c != 0 {
			return c
		}

		return strings.Compare(x.MimeType, y.MimeType)
	})

	return sorted
}
