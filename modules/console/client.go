package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/pump"
	"github.com/vk/framewire/internal/registry"
)

// Event names of the console protocol.
const (
	EventDispatch = "command.dispatch"
	EventAccepted = "command.accepted"
	EventError    = "command.error"
	EventExecuted = "command.executed"
)

// dispatchRequest is the payload of a command.dispatch event. Frames and
// DelayMs are pointers so "absent" and "zero" stay distinguishable.
type dispatchRequest struct {
	Name    string          `json:"name"`
	Args    json.RawMessage `json:"args"`
	Frames  *int            `json:"frames"`
	DelayMs *int            `json:"delay_ms"`
}

// Client is the Socket.IO console connection. It also implements
// pump.Recorder so every execution is mirrored to the console.
type Client struct {
	rawURL    string
	registry  *registry.Registry
	pump      *pump.Pump
	manager   *socket.Manager
	io        *socket.Socket
	connected atomic.Bool
}

// New returns an unconnected client. Start establishes the connection.
func New(rawURL string, reg *registry.Registry, p *pump.Pump) *Client {
	return &Client{rawURL: rawURL, registry: reg, pump: p}
}

// Start connects to the console and installs the event handlers. The
// transport reconnects on its own, so only an unusable URL is an error.
func (c *Client) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("url", c.rawURL)
	logger.Debug("Console client starting.")

	parsedURL, err := url.Parse(c.rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse console URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	c.manager = socket.NewManager(baseURL, opts)
	c.io = c.manager.Socket("/", opts)

	c.io.On(types.EventName("connect"), func(...any) {
		c.connected.Store(true)
		logger.Info("Console connected.", "sid", c.io.Id())
	})

	c.io.On(types.EventName("disconnect"), func(...any) {
		c.connected.Store(false)
		logger.Info("Console disconnected.")
	})

	c.io.On(types.EventName("connect_error"), func(errs ...any) {
		logger.Warn("Console connection failed.", "error", errs[0])
	})

	c.io.On(types.EventName(EventDispatch), func(data ...any) {
		if len(data) == 0 {
			return
		}
		c.handleDispatch(ctx, data[0])
	})

	c.io.Connect()
	return nil
}

// Stop disconnects from the console.
func (c *Client) Stop(ctx context.Context) {
	if c.io == nil {
		return
	}
	ctxlog.FromContext(ctx).Debug("Disconnecting console client.")
	c.io.Disconnect()
	c.connected.Store(false)
}

// handleDispatch builds the named command and hands it to the pump. Bad
// requests produce a command.error event and leave the pump untouched.
func (c *Client) handleDispatch(ctx context.Context, payload any) {
	logger := ctxlog.FromContext(ctx)

	req, err := decodeDispatch(payload)
	if err != nil {
		logger.Warn("Console dispatch rejected.", "error", err)
		c.emit(EventError, map[string]any{"error": err.Error()})
		return
	}

	cmd, err := c.registry.Build(ctx, req.Name, req.Args)
	if err != nil {
		logger.Warn("Console dispatch rejected.", "command", req.Name, "error", err)
		c.emit(EventError, map[string]any{"name": req.Name, "error": err.Error()})
		return
	}

	switch {
	case req.DelayMs != nil:
		err = c.pump.DispatchAfter(ctx, cmd, time.Duration(*req.DelayMs)*time.Millisecond)
	case req.Frames != nil:
		err = c.pump.DispatchFrames(ctx, cmd, *req.Frames)
	default:
		err = c.pump.Dispatch(ctx, cmd)
	}
	if err != nil {
		logger.Warn("Console dispatch rejected.", "command", req.Name, "error", err)
		c.emit(EventError, map[string]any{"name": req.Name, "error": err.Error()})
		return
	}

	c.emit(EventAccepted, map[string]any{"name": req.Name})
}

// decodeDispatch normalizes whatever the transport decoded into a request.
func decodeDispatch(payload any) (*dispatchRequest, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid dispatch payload: %w", err)
	}

	var req dispatchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("invalid dispatch payload: %w", err)
	}
	if req.Name == "" {
		return nil, errors.New("dispatch payload missing command name")
	}
	if len(req.Args) == 0 {
		req.Args = json.RawMessage("{}")
	}
	return &req, nil
}

// Record implements pump.Recorder by mirroring executions to the console.
func (c *Client) Record(ctx context.Context, rec pump.Record) {
	c.emit(EventExecuted, map[string]any{
		"seq":     rec.Seq,
		"tick":    rec.Tick,
		"variant": rec.Variant,
		"origin":  string(rec.Origin),
	})
}

// emit sends an event when connected, and drops it otherwise.
func (c *Client) emit(event string, data map[string]any) {
	if c.io == nil || !c.connected.Load() {
		return
	}
	c.io.Emit(event, data)
}
