package process

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"webcore/internal/ipc"
)

// Wire payloads for Navigate and ExecuteScript are the raw UTF-8
// bytes spec §6 names ("Navigate payload is UTF-8 URL; ExecuteScript
// payload is UTF-8 source"); every other message here carries a small
// JSON-encoded struct, since no example repo's wire protocol (or the
// rest of the pack) models a binary RPC payload format this project
// could borrow instead — see DESIGN.md.

type navigationResultWire struct {
	Kind       NavigationResultKind `json:"kind"`
	URL        string               `json:"url"`
	Status     int                  `json:"status"`
	FailedKind FailureKind          `json:"failed_kind"`
}

type scriptResultWire struct {
	Result string `json:"result"`
	Err    string `json:"err,omitempty"`
}

type errorWire struct {
	Err string `json:"err,omitempty"`
}

type titleChangedWire struct {
	Title string `json:"title"`
}

type loadingStateWire struct {
	Loading bool `json:"loading"`
}

func encodeNavigationResult(r NavigationResult) []byte {
	b, _ := json.Marshal(navigationResultWire{Kind: r.Kind, URL: r.URL, Status: r.Status, FailedKind: r.FailedKind})
	return b
}

func decodeNavigationResult(payload []byte) (NavigationResult, error) {
	var w navigationResultWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return NavigationResult{}, err
	}
	return NavigationResult{Kind: w.Kind, URL: w.URL, Status: w.Status, FailedKind: w.FailedKind}, nil
}

// RemoteFrameHost implements FrameHost by proxying every call over an
// ipc.Conn to a renderer process running Serve against its own
// in-process FrameHost (internal/renderer.Renderer, in practice). It
// tracks Title/IsLoading locally from the MsgTitleChanged/
// MsgLoadingStateChanged events Serve pushes after every navigation,
// since FrameHost's synchronous Title()/IsLoading() accessors have no
// room for a blocking round trip or an error return.
type RemoteFrameHost struct {
	conn *ipc.Conn
	log  *zap.Logger

	mu      sync.Mutex
	url     string
	title   string
	loading bool
}

// NewRemoteFrameHost wraps raw (an already-connected transport to a
// renderer process) in a RemoteFrameHost.
func NewRemoteFrameHost(raw net.Conn, log *zap.Logger) *RemoteFrameHost {
	if log == nil {
		log = zap.NewNop()
	}
	r := &RemoteFrameHost{log: log}
	r.conn = ipc.NewConn(raw, log, r.handleEvent)
	return r
}

func (r *RemoteFrameHost) handleEvent(f ipc.Frame) {
	switch f.Type {
	case ipc.MsgTitleChanged:
		var w titleChangedWire
		if json.Unmarshal(f.Payload, &w) == nil {
			r.mu.Lock()
			r.title = w.Title
			r.mu.Unlock()
		}
	case ipc.MsgLoadingStateChanged:
		var w loadingStateWire
		if json.Unmarshal(f.Payload, &w) == nil {
			r.mu.Lock()
			r.loading = w.Loading
			r.mu.Unlock()
		}
	default:
		r.log.Warn("process: renderer proxy ignoring unexpected event", zap.Stringer("type", f.Type))
	}
}

func (r *RemoteFrameHost) rememberURL(result NavigationResult) {
	if result.Kind != NavSuccess {
		return
	}
	r.mu.Lock()
	r.url = result.URL
	r.mu.Unlock()
}

// Navigate implements FrameHost.
func (r *RemoteFrameHost) Navigate(ctx context.Context, url string) (NavigationResult, error) {
	resp, err := r.conn.Request(ipc.MsgNavigate, []byte(url))
	if err != nil {
		return NavigationResult{}, err
	}
	result, err := decodeNavigationResult(resp.Payload)
	if err == nil {
		r.rememberURL(result)
	}
	return result, err
}

// Reload implements FrameHost.
func (r *RemoteFrameHost) Reload(ctx context.Context) (NavigationResult, error) {
	resp, err := r.conn.Request(ipc.MsgReload, nil)
	if err != nil {
		return NavigationResult{}, err
	}
	result, err := decodeNavigationResult(resp.Payload)
	if err == nil {
		r.rememberURL(result)
	}
	return result, err
}

// GoBack implements FrameHost.
func (r *RemoteFrameHost) GoBack(ctx context.Context) (NavigationResult, error) {
	resp, err := r.conn.Request(ipc.MsgGoBack, nil)
	if err != nil {
		return NavigationResult{}, err
	}
	result, err := decodeNavigationResult(resp.Payload)
	if err == nil {
		r.rememberURL(result)
	}
	return result, err
}

// GoForward implements FrameHost.
func (r *RemoteFrameHost) GoForward(ctx context.Context) (NavigationResult, error) {
	resp, err := r.conn.Request(ipc.MsgGoForward, nil)
	if err != nil {
		return NavigationResult{}, err
	}
	result, err := decodeNavigationResult(resp.Payload)
	if err == nil {
		r.rememberURL(result)
	}
	return result, err
}

// ExecuteScript implements FrameHost.
func (r *RemoteFrameHost) ExecuteScript(ctx context.Context, src string) (string, error) {
	resp, err := r.conn.Request(ipc.MsgExecuteScript, []byte(src))
	if err != nil {
		return "", err
	}
	var w scriptResultWire
	if err := json.Unmarshal(resp.Payload, &w); err != nil {
		return "", err
	}
	if w.Err != "" {
		return "", fmt.Errorf("renderer: %s", w.Err)
	}
	return w.Result, nil
}

// Stop implements FrameHost.
func (r *RemoteFrameHost) Stop() error {
	resp, err := r.conn.Request(ipc.MsgStop, nil)
	if err != nil {
		return err
	}
	var w errorWire
	if err := json.Unmarshal(resp.Payload, &w); err != nil {
		return err
	}
	if w.Err != "" {
		return fmt.Errorf("renderer: %s", w.Err)
	}
	return nil
}

// URL implements FrameHost from the last successful navigation result
// this proxy observed.
func (r *RemoteFrameHost) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// Title implements FrameHost from the last MsgTitleChanged event.
func (r *RemoteFrameHost) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// IsLoading implements FrameHost from the last MsgLoadingStateChanged
// event.
func (r *RemoteFrameHost) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Close releases the underlying connection.
func (r *RemoteFrameHost) Close() error {
	return r.conn.Close()
}

// Conn exposes the underlying ipc.Conn so a supervisor can Attach it
// to its process bookkeeping record.
func (r *RemoteFrameHost) Conn() *ipc.Conn { return r.conn }

// server dispatches inbound requests on a renderer process's side of
// the connection to a local FrameHost, replying over the same Conn
// and pushing title/loading-state events after each navigation.
type server struct {
	host FrameHost
	log  *zap.Logger
	conn *ipc.Conn
}

// Serve wraps raw (the renderer's connection back to its supervisor)
// and drives every inbound request against host until the connection
// closes. The returned Conn is kept alive by Serve's own read loop;
// callers typically just block on something else (e.g. a signal
// channel) after calling Serve.
func Serve(raw net.Conn, host FrameHost, log *zap.Logger) *ipc.Conn {
	if log == nil {
		log = zap.NewNop()
	}
	s := &server{host: host, log: log}
	s.conn = ipc.NewConn(raw, log, s.dispatch)
	return s.conn
}

func (s *server) dispatch(f ipc.Frame) {
	ctx := context.Background()
	switch f.Type {
	case ipc.MsgNavigate:
		result, err := s.host.Navigate(ctx, string(f.Payload))
		s.replyNavigation(f, result, err)
		s.pushState()
	case ipc.MsgReload:
		result, err := s.host.Reload(ctx)
		s.replyNavigation(f, result, err)
		s.pushState()
	case ipc.MsgGoBack:
		result, err := s.host.GoBack(ctx)
		s.replyNavigation(f, result, err)
		s.pushState()
	case ipc.MsgGoForward:
		result, err := s.host.GoForward(ctx)
		s.replyNavigation(f, result, err)
		s.pushState()
	case ipc.MsgExecuteScript:
		res, err := s.host.ExecuteScript(ctx, string(f.Payload))
		w := scriptResultWire{Result: res}
		if err != nil {
			w.Err = err.Error()
		}
		b, _ := json.Marshal(w)
		s.reply(f, ipc.MsgScriptResult, b)
	case ipc.MsgStop:
		w := errorWire{}
		if err := s.host.Stop(); err != nil {
			w.Err = err.Error()
		}
		b, _ := json.Marshal(w)
		s.reply(f, ipc.MsgError, b)
	default:
		s.log.Warn("process: renderer ignoring unexpected request", zap.Stringer("type", f.Type))
	}
}

func (s *server) reply(f ipc.Frame, msgType ipc.MessageType, payload []byte) {
	if err := s.conn.Send(ipc.Frame{Type: msgType, RequestID: f.RequestID, Payload: payload}); err != nil {
		s.log.Warn("process: failed to send reply", zap.Error(err))
	}
}

func (s *server) replyNavigation(f ipc.Frame, result NavigationResult, err error) {
	if err != nil {
		b, _ := json.Marshal(errorWire{Err: err.Error()})
		s.reply(f, ipc.MsgError, b)
		return
	}
	s.reply(f, ipc.MsgNavigationResult, encodeNavigationResult(result))
}

func (s *server) pushState() {
	titleB, _ := json.Marshal(titleChangedWire{Title: s.host.Title()})
	if err := s.conn.Send(ipc.Frame{Type: ipc.MsgTitleChanged, Payload: titleB}); err != nil {
		s.log.Debug("process: failed to push title", zap.Error(err))
	}
	loadB, _ := json.Marshal(loadingStateWire{Loading: s.host.IsLoading()})
	if err := s.conn.Send(ipc.Frame{Type: ipc.MsgLoadingStateChanged, Payload: loadB}); err != nil {
		s.log.Debug("process: failed to push loading state", zap.Error(err))
	}
}
