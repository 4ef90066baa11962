// Command renderer is the child process internal/process.Supervisor
// spawns for each tab: `--type=renderer --tab=<id> --ipc=<path>`. It
// dials the unix socket its supervisor is already listening on, then
// drives an internal/renderer.Renderer against whatever the supervisor
// sends over that connection until the connection drops.
//
// Replaces the teacher's cmd/l14, which never spawns a child process
// and drives pkg/resource.Louis14Renderer directly from its own UI
// goroutine; cmd/renderer is new surface area spec §6's CLI contract
// requires and has no teacher analogue to adapt.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"webcore/internal/logging"
	"webcore/internal/netfetch"
	"webcore/internal/process"
	"webcore/internal/renderer"
)

const (
	defaultViewportWidth  = 1280.0
	defaultViewportHeight = 720.0
)

func main() {
	os.Exit(run())
}

func run() int {
	procType := flag.String("type", "renderer", "process role: browser|renderer|network|gpu|storage")
	tab := flag.Uint64("tab", 0, "tab id this renderer owns")
	ipcPath := flag.String("ipc", "", "unix socket path to connect back to the supervisor")
	flag.Parse()

	if *procType != "renderer" {
		fmt.Fprintf(os.Stderr, "renderer: unsupported --type=%s for this binary\n", *procType)
		return 1
	}
	if *ipcPath == "" {
		fmt.Fprintln(os.Stderr, "renderer: --ipc is required")
		return 1
	}

	log, err := logging.New(logging.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "renderer: logging init: %v\n", err)
		return 1
	}
	defer log.Sync()

	raw, err := net.Dial("unix", *ipcPath)
	if err != nil {
		log.Error("renderer: failed to connect to supervisor", zap.String("ipc", *ipcPath), zap.Error(err))
		return 1
	}

	fetcher := netfetch.NewHTTPFetcher("")
	host := renderer.New(*tab, fetcher, defaultViewportWidth, defaultViewportHeight, log.Logger)
	conn := process.Serve(raw, host, log.Logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-conn.Done():
		log.Info("renderer: supervisor connection closed", zap.Uint64("tab", *tab))
		return 0
	case sig := <-sigCh:
		log.Info("renderer: received signal, shutting down", zap.Stringer("signal", sig))
		_ = conn.Close()
		return 130
	}
}
