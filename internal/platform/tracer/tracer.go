// Package tracer is a small tracing abstraction used by the instruction executor
// and the session managers. OTelTracer adapts it onto OpenTelemetry; NoopTracer
// is the default when nothing is configured.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed. Call exactly once.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute      { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute   { return Attribute{Key: key, Value: value} }
func Int64(key string, value int64) Attribute { return Attribute{Key: key, Value: value} }

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanInstruction       = "wallet.instruction"
	SpanIssuanceContinue  = "wallet.issuance.continue"
	SpanIssuanceAccept    = "wallet.issuance.accept"
	SpanDisclosureStart   = "wallet.disclosure.start"
	SpanDisclosureAccept  = "wallet.disclosure.accept"
	SpanDisclosureCancel  = "wallet.disclosure.cancel"
	SpanAccountServerCall = "wallet.account_server.call"
)

// Attribute keys.
const (
	AttrInstruction  = "instruction.name"
	AttrProofKind    = "instruction.proof"
	AttrOutcome      = "instruction.outcome"
	AttrAttemptsLeft = "pin.attempts_left_in_round"
	AttrFinalRound   = "pin.is_final_round"
	AttrSessionKind  = "session.kind"
	AttrSessionState = "session.state"
	AttrIsQRCode     = "disclosure.is_qr_code"
	AttrMissingCount = "disclosure.missing_count"
	AttrOfferCount   = "issuance.offer_count"
)

// Event names.
const (
	EventSessionCancelled = "session.cancelled"
	EventWalletBlocked    = "wallet.blocked"
)
