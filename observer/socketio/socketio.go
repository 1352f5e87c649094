// Package socketio streams ordr node lifecycle events to a Socket.IO
// endpoint, for a live dashboard watching a run in progress. It is an
// optional, external collaborator: nothing in the core engine imports it.
package socketio

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/casperin/ordr/internal/ctxlog"
	"github.com/casperin/ordr/observer"
)

// Observer emits an "ordr:transition" event over a Socket.IO connection for
// every node transition it receives.
type Observer struct {
	client *socket.Socket
	event  string
}

// Connect dials url and returns a connected Observer. namespace may be
// empty for the default namespace. The connection attempt is abandoned if
// it has not succeeded within 15 seconds or ctx is done first.
func Connect(ctx context.Context, rawURL, namespace string) (*Observer, error) {
	logger := ctxlog.FromContext(ctx).With("observer", "socketio", "url", rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("ordr/socketio: parse url: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsed.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	manager := socket.NewManager(baseURL, opts)
	client := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	client.Once(types.EventName("connect"), func(...any) {
		logger.Debug("connected", "sid", client.Id())
		connected <- nil
	})
	client.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connected <- err
				return
			}
		}
		connected <- fmt.Errorf("ordr/socketio: connect failed")
	})

	client.Connect()

	select {
	case err := <-connected:
		if err != nil {
			client.Disconnect()
			return nil, fmt.Errorf("ordr/socketio: %w", err)
		}
	case <-ctx.Done():
		client.Disconnect()
		return nil, ctx.Err()
	case <-time.After(15 * time.Second):
		client.Disconnect()
		return nil, fmt.Errorf("ordr/socketio: timed out waiting to connect")
	}

	return &Observer{client: client, event: "ordr:transition"}, nil
}

// Close disconnects the underlying Socket.IO client.
func (o *Observer) Close() {
	o.client.Disconnect()
}

// OnTransition implements observer.Observer.
func (o *Observer) OnTransition(e observer.Event) {
	payload := map[string]any{
		"node":  e.Node,
		"state": e.State.String(),
	}
	if e.Err != nil {
		payload["error"] = e.Err.Error()
	}
	if !o.client.Connected() {
		slog.Warn("ordr/socketio: dropping transition, not connected", "node", e.Node)
		return
	}
	o.client.Emit(o.event, payload)
}
