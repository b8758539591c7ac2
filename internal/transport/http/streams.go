package httptransport

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"walletcore/internal/notify"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/requestcontext"
)

// StreamMessage is one value pushed over a stream connection.
type StreamMessage[T any] struct {
	Stream notify.Stream `json:"stream"`
	Value  T             `json:"value"`
}

type pump interface {
	run(ctx context.Context, conn *websocket.Conn) error
	// active reports whether the subscription is still the registered sink.
	active() bool
}

type subscriptionPump[T any] struct {
	stream notify.Stream
	sub    *notify.Subscription[T]
}

func newPump[T any](stream notify.Stream, sub *notify.Subscription[T]) pump {
	return subscriptionPump[T]{stream: stream, sub: sub}
}

// run forwards values until the subscription ends, returning its reason,
// or until ctx ends.
func (p subscriptionPump[T]) run(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-p.sub.Updates():
			if !ok {
				return p.sub.Err()
			}
			if err := wsjson.Write(ctx, conn, StreamMessage[T]{Stream: p.stream, Value: v}); err != nil {
				return err
			}
		}
	}
}

func (p subscriptionPump[T]) active() bool {
	return p.sub.Err() == nil
}

func parseStream(r *http.Request) (notify.Stream, error) {
	stream := notify.Stream(chi.URLParam(r, "stream"))
	if !slices.Contains(notify.Streams, stream) {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown stream")
	}
	return stream, nil
}

// handleStream registers the connection as the sink of one stream kind,
// replacing the previous sink. The subscription is made before the upgrade
// so a failed history seed is reported as a normal error response.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stream, err := parseStream(r)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}

	var p pump
	switch stream {
	case notify.StreamLock:
		p = newPump(stream, h.wallet.SubscribeLock())
	case notify.StreamConfiguration:
		p = newPump(stream, h.wallet.SubscribeConfiguration())
	case notify.StreamAttestations:
		p = newPump(stream, h.wallet.SubscribeAttestations())
	case notify.StreamVersionState:
		p = newPump(stream, h.wallet.SubscribeVersionState())
	case notify.StreamRecentHistory:
		sub, err := h.wallet.SubscribeRecentHistory(ctx)
		if err != nil {
			h.writeError(ctx, w, r, err)
			return
		}
		p = newPump(stream, sub)
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.release(stream, p)
		return
	}
	// Context.Background keeps the stream alive past the request's write deadline.
	connCtx := requestcontext.WithCorrelationID(context.Background(), requestcontext.CorrelationID(ctx))
	connCtx = conn.CloseRead(connCtx)

	err = p.run(connCtx, conn)
	switch {
	case errors.Is(err, notify.ErrBackpressure):
		_ = conn.Close(websocket.StatusTryAgainLater, "subscriber fell behind, register again")
	case errors.Is(err, notify.ErrReplaced), errors.Is(err, notify.ErrCleared):
		_ = conn.Close(websocket.StatusNormalClosure, err.Error())
	case errors.Is(err, notify.ErrClosed):
		_ = conn.Close(websocket.StatusGoingAway, err.Error())
	default:
		h.release(stream, p)
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
	if h.logger != nil {
		h.logger.DebugContext(connCtx, "stream connection ended",
			"stream", string(stream),
			"reason", err,
			"correlation_id", requestcontext.CorrelationID(connCtx),
		)
	}
}

// release deregisters the sink when the connection goes away, unless a newer
// sink already replaced it.
func (h *Handler) release(stream notify.Stream, p pump) {
	if p.active() {
		h.wallet.ClearStream(stream)
	}
}

func (h *Handler) handleClearStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stream, err := parseStream(r)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	h.wallet.ClearStream(stream)
	noContent(w)
}
