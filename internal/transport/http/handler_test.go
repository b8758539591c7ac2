package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"walletcore/internal/accountserver"
	"walletcore/internal/accountserver/store/account"
	attestationstore "walletcore/internal/attestation/store"
	historystore "walletcore/internal/history/store"
	"walletcore/internal/instruction"
	"walletcore/internal/lock"
	"walletcore/internal/mockparty"
	"walletcore/internal/notify"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/service"
	"walletcore/internal/wallet/store/registration"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/platform/middleware/request"
)

const walletPin = "112358"

type errorBody struct {
	Error       string             `json:"error"`
	Description string             `json:"error_description"`
	Detail      *instruction.Error `json:"detail"`
}

type BridgeSuite struct {
	suite.Suite
	issuer   *mockparty.Issuer
	verifier *mockparty.Verifier
	wallet   *service.Service
	server   *httptest.Server
}

func TestBridgeSuite(t *testing.T) {
	suite.Run(t, new(BridgeSuite))
}

func (s *BridgeSuite) SetupTest() {
	provider, err := accountserver.New(account.NewInMemory())
	s.Require().NoError(err)
	s.issuer = mockparty.NewIssuer(models.DefaultUniversalLinkBase)
	s.verifier = mockparty.NewVerifier(s.issuer)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.wallet, err = service.New(service.Dependencies{
		AccountServer: provider,
		Issuer:        s.issuer,
		Verifier:      s.verifier,
		Registrations: registration.NewInMemory(),
		Attestations:  attestationstore.NewInMemory(),
		History:       historystore.NewInMemory(),
	}, service.WithLogger(logger))
	s.Require().NoError(err)

	reg := prometheus.NewRegistry()
	router := NewRouter(NewHandler(s.wallet, logger), logger,
		WithRequestMetrics(request.NewMetrics(reg)),
		WithMetricsEndpoint(reg),
	)
	s.server = httptest.NewServer(router)
	s.status(http.MethodPost, "/v1/wallet/init", nil, http.StatusNoContent)
}

func (s *BridgeSuite) TearDownTest() {
	s.server.Close()
	s.wallet.Close()
}

func (s *BridgeSuite) do(method, path string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

// status performs the call, checks the status and decodes a JSON body into out when given.
func (s *BridgeSuite) status(method, path string, body any, want int, out ...any) {
	resp := s.do(method, path, body)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().Equal(want, resp.StatusCode, "%s %s: %s", method, path, raw)
	for _, o := range out {
		s.Require().NoError(json.Unmarshal(raw, o))
	}
}

func (s *BridgeSuite) failure(method, path string, body any, want int) errorBody {
	var e errorBody
	s.status(method, path, body, want, &e)
	return e
}

func (s *BridgeSuite) registerAndUnlock() {
	s.status(http.MethodPost, "/v1/wallet/register", PinRequest{Pin: walletPin}, http.StatusNoContent)
	s.status(http.MethodPost, "/v1/wallet/unlock", PinRequest{Pin: walletPin}, http.StatusNoContent)
}

func (s *BridgeSuite) issuePid() {
	var redirect RedirectURIResponse
	s.status(http.MethodPost, "/v1/issuance/pid", nil, http.StatusOK, &redirect)
	u, err := url.Parse(redirect.RedirectURI)
	s.Require().NoError(err)

	var previews AttestationsResponse
	s.status(http.MethodPost, "/v1/issuance/pid/continue", URIRequest{URI: s.issuer.CallbackURI(u.Query().Get("state"))}, http.StatusOK, &previews)
	s.Require().Len(previews.Attestations, 1)

	var issued AttestationsResponse
	s.status(http.MethodPost, "/v1/issuance/pid/accept", PinRequest{Pin: walletPin}, http.StatusOK, &issued)
	s.Require().Len(issued.Attestations, 1)
}

func (s *BridgeSuite) disclosureRequest() models.DisclosureRequest {
	return models.DisclosureRequest{
		RelyingParty: models.Organization{
			LegalName:          models.LocalizedStrings{{Lang: "nl", Value: "Marktplaats B.V."}},
			RegistrationNumber: "34256445",
		},
		Requested: []models.RequestedAttestation{{AttestationType: models.PidAttestationType, AttributeKeys: []string{"age_over_18"}}},
	}
}

func (s *BridgeSuite) dial(stream notify.Stream) *websocket.Conn {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(s.server.URL, "http")+"/v1/streams/"+string(stream), nil) //nolint:bodyclose
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read[T any](s *BridgeSuite, conn *websocket.Conn) StreamMessage[T] {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg StreamMessage[T]
	s.Require().NoError(wsjson.Read(ctx, conn, &msg))
	return msg
}

func (s *BridgeSuite) TestErrorMapping() {
	s.Run("given an empty body when registering then the request is invalid", func() {
		e := s.failure(http.MethodPost, "/v1/wallet/register", map[string]string{}, http.StatusBadRequest)
		s.Equal(string(dErrors.CodeValidation), e.Error)
		s.Equal("pin is required", e.Description)
	})

	s.Run("given a malformed pin when registering then the request is invalid", func() {
		e := s.failure(http.MethodPost, "/v1/wallet/register", PinRequest{Pin: "12ab56"}, http.StatusBadRequest)
		s.Equal(string(dErrors.CodeValidation), e.Error)
	})

	s.Run("given no registration when unlocking then the precondition fails", func() {
		e := s.failure(http.MethodPost, "/v1/wallet/unlock", PinRequest{Pin: walletPin}, http.StatusPreconditionFailed)
		s.Equal(string(dErrors.CodeNotRegistered), e.Error)
	})

	s.Run("given no session when cancelling then it conflicts", func() {
		e := s.failure(http.MethodPost, "/v1/disclosure/cancel", nil, http.StatusConflict)
		s.Equal(string(dErrors.CodeSessionState), e.Error)
	})

	s.Run("given a plain text body then the media type is rejected", func() {
		req, err := http.NewRequest(http.MethodPost, s.server.URL+"/v1/wallet/register", strings.NewReader("pin=112358"))
		s.Require().NoError(err)
		req.Header.Set("Content-Type", "text/plain")
		resp, err := s.server.Client().Do(req)
		s.Require().NoError(err)
		defer resp.Body.Close()
		s.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
	})

	s.Run("given an unknown stream then it is not found", func() {
		s.failure(http.MethodDelete, "/v1/streams/cards", nil, http.StatusNotFound)
	})
}

func (s *BridgeSuite) TestInstructionErrorCarriesDetail() {
	s.status(http.MethodPost, "/v1/wallet/register", PinRequest{Pin: walletPin}, http.StatusNoContent)

	e := s.failure(http.MethodPost, "/v1/wallet/unlock", PinRequest{Pin: "000000"}, http.StatusForbidden)
	s.Equal(string(dErrors.CodeInstruction), e.Error)
	s.Require().NotNil(e.Detail)
	s.Equal(instruction.KindIncorrectPin, e.Detail.Kind)
	s.Equal(3, e.Detail.AttemptsLeftInRound)

	var retry models.PinRetryState
	s.status(http.MethodGet, "/v1/pin/retry-state", nil, http.StatusOK, &retry)
	s.Equal(3, retry.AttemptsLeftInRound)

	var state LockStateResponse
	s.status(http.MethodGet, "/v1/wallet/lock", nil, http.StatusOK, &state)
	s.Equal(lock.StateLocked, state.State)
	s.True(state.Locked)
}

func (s *BridgeSuite) TestCorrelationIDIsEchoed() {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/v1/wallet/initialized", nil)
	s.Require().NoError(err)
	req.Header.Set(request.CorrelationHeader, "ui-42")
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal("ui-42", resp.Header.Get(request.CorrelationHeader))
	var body InitializedResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.True(body.Initialized)
}

func (s *BridgeSuite) TestIssuanceAndDisclosure() {
	s.registerAndUnlock()
	s.issuePid()

	var kind IdentifyURIResponse
	uri := s.verifier.NewSession(s.disclosureRequest(), mockparty.WithReturnURL("https://marktplaats.example/done"))
	s.status(http.MethodPost, "/v1/uri/identify", URIRequest{URI: uri}, http.StatusOK, &kind)
	s.Equal(models.URIDisclosure, kind.Kind)

	var started models.StartDisclosureResult
	s.status(http.MethodPost, "/v1/disclosure", StartDisclosureRequest{URI: uri, IsQRCode: true}, http.StatusOK, &started)
	s.Equal(models.StartDisclosureRequest, started.Kind)
	s.Equal(models.SessionTypeCrossDevice, started.SessionType)

	var active SessionStateResponse
	s.status(http.MethodGet, "/v1/disclosure", nil, http.StatusOK, &active)
	s.True(active.Active)
	s.status(http.MethodPost, "/v1/issuance/pid", nil, http.StatusConflict)

	var accepted models.AcceptDisclosureResult
	s.status(http.MethodPost, "/v1/disclosure/accept", PinRequest{Pin: walletPin}, http.StatusOK, &accepted)
	s.Equal("https://marktplaats.example/done", accepted.ReturnURL)

	var history HistoryResponse
	s.status(http.MethodGet, "/v1/history", nil, http.StatusOK, &history)
	s.Require().Len(history.Events, 2)
	s.Equal(models.EventTypeDisclosure, history.Events[0].Type)

	var forCard HistoryResponse
	s.status(http.MethodGet, "/v1/history/"+url.PathEscape(models.PidAttestationType), nil, http.StatusOK, &forCard)
	s.Len(forCard.Events, 2)

	s.status(http.MethodPost, "/v1/wallet/lock", nil, http.StatusNoContent)
	e := s.failure(http.MethodGet, "/v1/history", nil, http.StatusPreconditionFailed)
	s.Equal(string(dErrors.CodeLocked), e.Error)
}

func (s *BridgeSuite) TestLockStream() {
	conn := s.dial(notify.StreamLock)
	s.True(read[bool](s, conn).Value, "the current value is replayed")

	s.registerAndUnlock()
	msg := read[bool](s, conn)
	s.Equal(notify.StreamLock, msg.Stream)
	s.False(msg.Value)

	s.Run("a newer sink replaces the connection", func() {
		replacement := s.dial(notify.StreamLock)
		s.False(read[bool](s, replacement).Value)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _, err := conn.Read(ctx)
		s.Equal(websocket.StatusNormalClosure, websocket.CloseStatus(err))

		s.status(http.MethodDelete, "/v1/streams/lock", nil, http.StatusNoContent)
		_, _, err = replacement.Read(ctx)
		s.Equal(websocket.StatusNormalClosure, websocket.CloseStatus(err))
	})
}

func (s *BridgeSuite) TestRecentHistoryStream() {
	s.registerAndUnlock()
	s.issuePid()

	conn := s.dial(notify.StreamRecentHistory)
	seeded := read[models.WalletEvent](s, conn)
	s.Equal(models.EventTypeIssuance, seeded.Value.Type)

	uri := s.verifier.NewSession(s.disclosureRequest())
	s.status(http.MethodPost, "/v1/disclosure", StartDisclosureRequest{URI: uri}, http.StatusOK)
	var returned ReturnURLResponse
	s.status(http.MethodPost, "/v1/disclosure/cancel", nil, http.StatusOK, &returned)

	cancelled := read[models.WalletEvent](s, conn)
	s.Require().NotNil(cancelled.Value.Disclosure)
	s.Equal(models.DisclosureStatusCancelled, cancelled.Value.Disclosure.Status)
}

func (s *BridgeSuite) TestMetricsEndpoint() {
	s.status(http.MethodGet, "/v1/wallet/initialized", nil, http.StatusOK)
	resp := s.do(http.MethodGet, "/metrics", nil)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(raw), "walletd_operation_latency_seconds")
}
