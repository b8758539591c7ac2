// Package httptransport bridges the wallet operations onto a local JSON API.
// Every request carries a correlation token; stream registrations are
// websocket connections, one per stream kind.
package httptransport

import (
	"context"
	"log/slog"

	"walletcore/internal/lock"
	"walletcore/internal/notify"
	"walletcore/internal/wallet/models"
)

// Wallet is the operation surface the bridge exposes.
type Wallet interface {
	Init(ctx context.Context) error
	IsInitialized() bool
	HasRegistration(ctx context.Context) (bool, error)
	IsValidPin(pin string) models.PinValidationResult
	Register(ctx context.Context, pin string) error
	ResetWallet(ctx context.Context) error

	UnlockWallet(ctx context.Context, pin string) error
	UnlockWalletWithBiometrics(ctx context.Context) error
	LockWallet(ctx context.Context) error
	CheckPin(ctx context.Context, pin string) error
	ChangePin(ctx context.Context, oldPin, newPin string) error
	ContinueChangePin(ctx context.Context, pin string) error
	IsBiometricUnlockEnabled(ctx context.Context) (bool, error)
	SetBiometricUnlock(ctx context.Context, enable bool) error
	AppBackgrounded(ctx context.Context)
	AppForegrounded(ctx context.Context) bool
	LockState() lock.State
	PinRetryState() models.PinRetryState

	CreatePidIssuanceRedirectURI(ctx context.Context) (string, error)
	ContinuePidIssuance(ctx context.Context, uri string) ([]models.Attestation, error)
	AcceptPidIssuance(ctx context.Context, pin string) ([]models.Attestation, error)
	ContinueDisclosureBasedIssuance(ctx context.Context, pin string) ([]models.Attestation, error)
	CancelIssuance(ctx context.Context) error
	CancelPidIssuance(ctx context.Context) error
	HasActiveIssuanceSession() bool
	HasActivePidIssuanceSession() bool

	IdentifyURI(ctx context.Context, uri string) (models.IdentifyURIResult, error)
	StartDisclosure(ctx context.Context, uri string, isQRCode bool) (models.StartDisclosureResult, error)
	AcceptDisclosure(ctx context.Context, pin string) (models.AcceptDisclosureResult, error)
	CancelDisclosure(ctx context.Context) (string, error)
	HasActiveDisclosureSession() bool

	GetHistory(ctx context.Context) ([]models.WalletEvent, error)
	GetHistoryForCard(ctx context.Context, attestationType string) ([]models.WalletEvent, error)

	SubscribeLock() *notify.Subscription[bool]
	SubscribeConfiguration() *notify.Subscription[models.Configuration]
	SubscribeAttestations() *notify.Subscription[[]models.Attestation]
	SubscribeVersionState() *notify.Subscription[models.VersionState]
	SubscribeRecentHistory(ctx context.Context) (*notify.Subscription[models.WalletEvent], error)
	ClearStream(stream notify.Stream)
}

// Handler translates HTTP requests into wallet operations. It holds no
// wallet state of its own.
type Handler struct {
	wallet Wallet
	logger *slog.Logger
}

func NewHandler(wallet Wallet, logger *slog.Logger) *Handler {
	return &Handler{
		wallet: wallet,
		logger: logger,
	}
}
