// Package process implements the browser/renderer process split and
// spawn policy described in spec §4.M: a supervisor process owns the
// UI and spawns one Renderer per tab plus singleton Network/Gpu/Storage
// processes, each reachable through the FrameHost contract over IPC.
//
// New relative to the teacher, which is a single Fyne binary
// (cmd/l14) that constructs a renderer in-process and never spawns
// anything. Process bookkeeping (an id-keyed registry guarded by a
// mutex, with updater-style mutation) is grounded on codenerd's
// SessionManager (map[string]*sessionRecord + sync.RWMutex). The
// spawn policy itself generalizes the teacher's existing separate
// binaries (cmd/l14, cmd/l14open, cmd/l14show) — each already a
// distinct entry point taking its own flags — into one
// kind-parameterized exec.Command invocation.
package process

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"webcore/internal/ipc"
)

// Kind identifies what role a spawned process plays.
type Kind int

const (
	KindBrowser Kind = iota
	KindRenderer
	KindNetwork
	KindGpu
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindBrowser:
		return "browser"
	case KindRenderer:
		return "renderer"
	case KindNetwork:
		return "network"
	case KindGpu:
		return "gpu"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Record is a supervisor's bookkeeping entry for one spawned process.
type Record struct {
	PID         int
	Kind        Kind
	TabID       uint64 // only meaningful for KindRenderer
	IPCEndpoint string
	Conn        *ipc.Conn
	Host        FrameHost // set only when SingleProcess substituted an in-process stub
	cmd         *exec.Cmd // nil for an in-process stub
}

// FrameHost is the contract a supervisor drives a renderer (real or
// in-process stub) through, per spec §4.M / §6.
type FrameHost interface {
	Navigate(ctx context.Context, url string) (NavigationResult, error)
	ExecuteScript(ctx context.Context, src string) (string, error)
	URL() string
	Title() string
	IsLoading() bool
	Stop() error
	Reload(ctx context.Context) (NavigationResult, error)
	GoBack(ctx context.Context) (NavigationResult, error)
	GoForward(ctx context.Context) (NavigationResult, error)
}

// NavigationResultKind discriminates NavigationResult's three shapes.
type NavigationResultKind int

const (
	NavSuccess NavigationResultKind = iota
	NavFailed
	NavCancelled
)

// FailureKind enumerates why a navigation failed, per spec §6's
// FrameHost contract.
type FailureKind int

const (
	FailNetwork FailureKind = iota
	FailDNS
	FailSSL
	FailHTTP // Status carries the HTTP status code
	FailBlocked
	FailTimeout
	FailUnknown
)

func (k FailureKind) String() string {
	switch k {
	case FailNetwork:
		return "network"
	case FailDNS:
		return "dns"
	case FailSSL:
		return "ssl"
	case FailHTTP:
		return "http"
	case FailBlocked:
		return "blocked"
	case FailTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// NavigationResult mirrors spec §6's `navigate -> NavigationResult{
// Success(final url, status) | Failed(kind) | Cancelled }`.
type NavigationResult struct {
	Kind       NavigationResultKind
	URL        string      // Success only: the post-redirect URL
	Status     int         // Success (HTTP status) or Failed with FailHTTP (the code)
	FailedKind FailureKind // Failed only
}

// Supervisor owns process bookkeeping: spawning, the FrameHost binding
// for each renderer, and the executable/IPC endpoint naming scheme.
type Supervisor struct {
	SingleProcess  bool // when true, Spawn substitutes an in-process stub
	ExecutablePath string
	log            *zap.Logger

	mu            sync.RWMutex
	nextPID       int
	records       map[int]*Record
	inprocFactory func(kind Kind, tabID uint64) FrameHost
}

// NewSupervisor builds a Supervisor. inprocFactory is only consulted
// when SingleProcess is true; it is how callers plug in the stub
// FrameHost implementation (internal/renderer's in-process driver)
// without this package depending on it.
func NewSupervisor(executablePath string, singleProcess bool, inprocFactory func(kind Kind, tabID uint64) FrameHost, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Supervisor{
		SingleProcess:  singleProcess,
		ExecutablePath: executablePath,
		log:            log,
		records:        map[int]*Record{},
		inprocFactory:  inprocFactory,
	}
}

// spawnArgs builds the `--type=<kind> [--tab=<id>] --ipc=<endpoint>`
// argument vector spec.md names for spawn_renderer and its siblings.
func spawnArgs(kind Kind, tabID uint64, endpoint string) []string {
	args := []string{fmt.Sprintf("--type=%s", kind), fmt.Sprintf("--ipc=%s", endpoint)}
	if kind == KindRenderer {
		args = append(args, fmt.Sprintf("--tab=%d", tabID))
	}
	return args
}

// SpawnRenderer spawns (or, in single-process mode, stubs) a renderer
// for tabID and returns its bookkeeping record. endpoint names the IPC
// transport (e.g. a named pipe or unix socket path); the caller is
// responsible for having a listener ready at that address before the
// child connects.
func (s *Supervisor) SpawnRenderer(tabID uint64, endpoint string) (*Record, error) {
	return s.spawn(KindRenderer, tabID, endpoint)
}

// SpawnService spawns one of the singleton Network/Gpu/Storage
// processes. kind must not be KindBrowser or KindRenderer.
func (s *Supervisor) SpawnService(kind Kind, endpoint string) (*Record, error) {
	if kind == KindBrowser || kind == KindRenderer {
		return nil, fmt.Errorf("process: %s is not a service kind", kind)
	}
	return s.spawn(kind, 0, endpoint)
}

func (s *Supervisor) spawn(kind Kind, tabID uint64, endpoint string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPID++
	id := s.nextPID

	rec := &Record{Kind: kind, TabID: tabID, IPCEndpoint: endpoint}

	if s.SingleProcess {
		rec.PID = id // synthetic id; no real OS process exists
		if s.inprocFactory != nil {
			rec.Host = s.inprocFactory(kind, tabID)
		}
		s.records[id] = rec
		s.log.Info("process: spawned in-process stub",
			zap.String("kind", kind.String()), zap.Uint64("tab", tabID))
		return rec, nil
	}

	args := spawnArgs(kind, tabID, endpoint)
	cmd := exec.Command(s.ExecutablePath, args...)
	if err := cmd.Start(); err != nil {
		s.nextPID--
		return nil, fmt.Errorf("process: spawn %s: %w", kind, err)
	}

	rec.PID = cmd.Process.Pid
	rec.cmd = cmd
	s.records[rec.PID] = rec
	s.log.Info("process: spawned child process",
		zap.Int("pid", rec.PID), zap.String("kind", kind.String()), zap.Uint64("tab", tabID),
		zap.Strings("args", args))
	return rec, nil
}

// Attach binds an established ipc.Conn to a spawned record, letting a
// caller finish wiring a process up after accepting its IPC
// connection.
func (s *Supervisor) Attach(pid int, conn *ipc.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[pid]
	if !ok {
		return fmt.Errorf("process: no record for pid %d", pid)
	}
	rec.Conn = conn
	return nil
}

// Record returns the bookkeeping entry for pid.
func (s *Supervisor) Record(pid int) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[pid]
	return rec, ok
}

// Processes returns a snapshot of every tracked record.
func (s *Supervisor) Processes() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}

// Terminate stops a tracked process (killing the child, or just
// forgetting the stub) and removes its record.
func (s *Supervisor) Terminate(pid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[pid]
	if !ok {
		return fmt.Errorf("process: no record for pid %d", pid)
	}
	delete(s.records, pid)
	if rec.Conn != nil {
		_ = rec.Conn.Close()
	}
	if rec.cmd != nil && rec.cmd.Process != nil {
		return rec.cmd.Process.Kill()
	}
	return nil
}
