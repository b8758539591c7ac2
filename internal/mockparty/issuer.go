// Package mockparty provides in-process issuer and verifier endpoints that
// speak the wallet's protocol ports. walletd uses them when no real parties
// are configured; tests use them as deterministic counterparts.
package mockparty

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/google/uuid"

	"walletcore/internal/wallet/models"
	"walletcore/pkg/platform/sentinel"
)

const DefaultAuthorizeURL = "https://issuer.example/authorize"

// Issuer hands out PID offers after a simulated authorization step and
// signs offers created on behalf of relying parties.
type Issuer struct {
	authorizeURL string
	callback     string
	pid          []models.Attestation

	mu      sync.Mutex
	states  map[string]struct{}
	offers  map[string][]models.Attestation
	failure error
}

type IssuerOption func(*Issuer)

func WithAuthorizeURL(u string) IssuerOption {
	return func(i *Issuer) {
		i.authorizeURL = u
	}
}

// WithPid replaces the attestations offered by PID issuance.
func WithPid(attestations ...models.Attestation) IssuerOption {
	return func(i *Issuer) {
		i.pid = attestations
	}
}

// NewIssuer returns an issuer that redirects back to the wallet under
// universalLinkBase.
func NewIssuer(universalLinkBase string, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		authorizeURL: DefaultAuthorizeURL,
		callback:     universalLinkBase + "return-from-digid",
		pid:          []models.Attestation{PidAttestation("999991772", "Willeke Liselotte", "De Bruijn")},
		states:       make(map[string]struct{}),
		offers:       make(map[string][]models.Attestation),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) StartAuthorization(_ context.Context) (models.AuthorizationRedirect, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.takeFailure(); err != nil {
		return models.AuthorizationRedirect{}, err
	}

	u, err := url.Parse(i.authorizeURL)
	if err != nil {
		return models.AuthorizationRedirect{}, fmt.Errorf("authorize url: %w", err)
	}
	state := uuid.NewString()
	q := u.Query()
	q.Set("state", state)
	q.Set("redirect_uri", i.callback)
	u.RawQuery = q.Encode()
	i.states[state] = struct{}{}
	return models.AuthorizationRedirect{URL: u.String(), State: state}, nil
}

// CallbackURI is the URI the authorization step redirects the user to.
func (i *Issuer) CallbackURI(state string) string {
	return i.callback + "?" + url.Values{"state": {state}, "code": {uuid.NewString()}}.Encode()
}

func (i *Issuer) ContinueAuthorization(_ context.Context, redirectURI string) (models.IssuanceOffer, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.takeFailure(); err != nil {
		return models.IssuanceOffer{}, err
	}

	u, err := url.Parse(redirectURI)
	if err != nil {
		return models.IssuanceOffer{}, fmt.Errorf("redirect uri: %w", sentinel.ErrInvalidInput)
	}
	state := u.Query().Get("state")
	if _, ok := i.states[state]; !ok {
		return models.IssuanceOffer{}, fmt.Errorf("unknown authorization state: %w", sentinel.ErrInvalidInput)
	}
	delete(i.states, state)
	return i.offer(i.pid), nil
}

// Offer registers previews the issuer is prepared to sign.
func (i *Issuer) Offer(previews ...models.Attestation) models.IssuanceOffer {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.offer(previews)
}

func (i *Issuer) offer(attestations []models.Attestation) models.IssuanceOffer {
	token := uuid.NewString()
	i.offers[token] = slices.Clone(attestations)
	previews := make([]models.Attestation, len(attestations))
	for n, a := range attestations {
		a.Identity = models.AttestationIdentity{Kind: models.IdentityEphemeral}
		previews[n] = a
	}
	return models.IssuanceOffer{Token: token, Previews: previews}
}

func (i *Issuer) AcceptOffer(_ context.Context, offer models.IssuanceOffer, resultToken string) ([]models.Attestation, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.takeFailure(); err != nil {
		return nil, err
	}
	if resultToken == "" {
		return nil, fmt.Errorf("missing instruction result: %w", sentinel.ErrInvalidInput)
	}
	attestations, ok := i.offers[offer.Token]
	if !ok {
		return nil, fmt.Errorf("offer %s: %w", offer.Token, sentinel.ErrNotFound)
	}
	delete(i.offers, offer.Token)

	issued := make([]models.Attestation, len(attestations))
	for n, a := range attestations {
		a.Identity = models.FixedIdentity(uuid.NewString())
		issued[n] = a
	}
	return issued, nil
}

func (i *Issuer) RejectOffer(_ context.Context, offer models.IssuanceOffer) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.offers[offer.Token]; !ok {
		return fmt.Errorf("offer %s: %w", offer.Token, sentinel.ErrNotFound)
	}
	delete(i.offers, offer.Token)
	return nil
}

// PendingOffers counts offers neither accepted nor rejected.
func (i *Issuer) PendingOffers() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.offers)
}

// FailNext makes the next protocol call return err.
func (i *Issuer) FailNext(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.failure = err
}

// takeFailure is called with mu held.
func (i *Issuer) takeFailure() error {
	err := i.failure
	i.failure = nil
	return err
}
