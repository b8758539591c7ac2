// Package ports declares the collaborators the wallet core drives: the wallet
// provider's account server, the hardware-bound biometric key, and the issuer
// and verifier protocol clients.
package ports

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"walletcore/internal/wallet/models"
)

// Instruction names understood by the account server.
const (
	InstructionCheckPin          = "check_pin"
	InstructionUnlock            = "unlock"
	InstructionChangePinStart    = "change_pin_start"
	InstructionChangePinCommit   = "change_pin_commit"
	InstructionChangePinRollback = "change_pin_rollback"
	InstructionIssue             = "issue"
	InstructionDisclose          = "disclose"
)

type ProofKind string

const (
	ProofPin       ProofKind = "pin"
	ProofBiometric ProofKind = "biometric"
)

type RegisterRequest struct {
	PinPublicKey       ed25519.PublicKey
	BiometricPublicKey *ecdsa.PublicKey
}

type RegisterResponse struct {
	WalletID string
	// ProviderKey is the PEM encoded public key that signs instruction results.
	ProviderKey []byte
}

type ChallengeRequest struct {
	WalletID    string
	Instruction string
	Sequence    uint64
}

// InstructionRequest carries a signed challenge and the instruction payload.
type InstructionRequest struct {
	WalletID    string
	Instruction string
	Sequence    uint64
	Challenge   []byte
	ProofKind   ProofKind
	Signature   []byte
	// NewPinPublicKey is set for change_pin_start only.
	NewPinPublicKey ed25519.PublicKey
}

// AccountServer is the wallet provider backend. It owns the PIN retry policy.
type AccountServer interface {
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	Challenge(ctx context.Context, req ChallengeRequest) ([]byte, error)
	// Execute returns the signed instruction result (a JWT) or one of the
	// errors below.
	Execute(ctx context.Context, req InstructionRequest) (string, error)
}

// BiometricKey is a hardware-bound key released by a biometric check.
type BiometricKey interface {
	PublicKey(ctx context.Context) (*ecdsa.PublicKey, error)
	SignChallenge(ctx context.Context, challenge []byte) ([]byte, error)
}

// IssuerClient speaks the issuance protocol.
type IssuerClient interface {
	StartAuthorization(ctx context.Context) (models.AuthorizationRedirect, error)
	ContinueAuthorization(ctx context.Context, redirectURI string) (models.IssuanceOffer, error)
	AcceptOffer(ctx context.Context, offer models.IssuanceOffer, resultToken string) ([]models.Attestation, error)
	RejectOffer(ctx context.Context, offer models.IssuanceOffer) error
}

// VerifierClient speaks the disclosure protocol with a relying party.
type VerifierClient interface {
	StartSession(ctx context.Context, uri string, isQRCode bool) (models.DisclosureRequest, error)
	Disclose(ctx context.Context, req models.DisclosureRequest, attestations []models.Attestation, resultToken string) (models.DisclosureOutcome, error)
	// Terminate tells the relying party the user declined. It may return a return URL.
	Terminate(ctx context.Context, req models.DisclosureRequest) (string, error)
}

// Account server errors.
var (
	ErrAccountBlocked   = errors.New("account blocked")
	ErrInvalidChallenge = errors.New("invalid or expired challenge")
	ErrInvalidSequence  = errors.New("instruction sequence number reused")
	ErrUnknownWallet    = errors.New("unknown wallet")
	ErrNoPendingPin     = errors.New("no pending pin change")
)

// IncorrectPinError is returned when the proof did not verify.
type IncorrectPinError struct {
	AttemptsLeftInRound int
	IsFinalRound        bool
}

func (e *IncorrectPinError) Error() string {
	return fmt.Sprintf("incorrect pin: %d attempts left in round (final round: %t)", e.AttemptsLeftInRound, e.IsFinalRound)
}

// PinTimeoutError is returned at the end of a round and while the timeout runs.
type PinTimeoutError struct {
	Timeout time.Duration
}

func (e *PinTimeoutError) Error() string {
	return fmt.Sprintf("pin timeout: retry in %s", e.Timeout)
}
