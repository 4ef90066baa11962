// Command browser is the supervisor process spec §4.M / §6 describes:
// it owns the UI, spawns one renderer child per tab over the
// --type=renderer --tab=<id> --ipc=<path> contract (or substitutes an
// in-process stub under --single-process), and drives each tab through
// the FrameHost interface rather than touching a renderer's internals
// directly.
//
// Adapted from the teacher's cmd/l14/main.go, which is a single Fyne
// binary constructing pkg/resource.Louis14Renderer in its own
// goroutine. The Fyne shell (window, URL entry, status label) is kept;
// what changes is everything behind the URL bar's OnSubmitted handler,
// which now goes through internal/process.Supervisor and a FrameHost
// instead of calling a renderer constructor inline.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"webcore/internal/config"
	"webcore/internal/logging"
	"webcore/internal/netfetch"
	"webcore/internal/process"
	"webcore/internal/renderer"
)

func newDefaultFetcher() *netfetch.HTTPFetcher {
	return netfetch.NewHTTPFetcher("")
}

const bootstrapTabID uint64 = 1

func main() {
	os.Exit(run())
}

func run() int {
	procType := flag.String("type", "browser", "process role: browser|renderer|network|gpu|storage")
	singleProcess := flag.Bool("single-process", false, "substitute in-process renderer stubs instead of spawning child processes")
	configPath := flag.String("config", "", "path to a YAML or TOML preferences file (optional)")
	flag.Parse()

	if *procType != "browser" {
		fmt.Fprintf(os.Stderr, "browser: unsupported --type=%s for this binary; use cmd/renderer\n", *procType)
		return 1
	}

	logCfg := logging.DefaultConfig()
	if *configPath != "" {
		mgr, err := config.NewManager(*configPath, zap.NewNop())
		if err != nil {
			fmt.Fprintf(os.Stderr, "browser: loading %s: %v\n", *configPath, err)
			return 1
		}
		logCfg = mgr.Current().LoggingConfig()
	}
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "browser: logging init: %v\n", err)
		return 1
	}
	defer log.Sync()

	executable, err := os.Executable()
	if err != nil {
		log.Error("browser: resolving own executable path", zap.Error(err))
		return 1
	}

	inprocFactory := func(kind process.Kind, tabID uint64) process.FrameHost {
		if kind != process.KindRenderer {
			return nil
		}
		return renderer.New(tabID, newDefaultFetcher(), 1280, 720, log.Logger)
	}
	sup := process.NewSupervisor(executable, *singleProcess, inprocFactory, log.Logger)

	host, cleanup, err := spawnTab(sup, bootstrapTabID, log.Logger)
	if err != nil {
		log.Error("browser: spawning initial tab", zap.Error(err))
		return 1
	}
	defer cleanup()

	runUI(host, log.Logger)
	return 0
}

// spawnTab asks sup for a renderer (real or stubbed) and returns a
// FrameHost bound to it, plus a cleanup func tearing down the listener
// and process record together.
func spawnTab(sup *process.Supervisor, tabID uint64, log *zap.Logger) (process.FrameHost, func(), error) {
	if sup.SingleProcess {
		rec, err := sup.SpawnRenderer(tabID, "")
		if err != nil {
			return nil, nil, err
		}
		return rec.Host, func() { _ = sup.Terminate(rec.PID) }, nil
	}

	socketPath := filepath.Join(os.TempDir(), fmt.Sprintf("webcore-renderer-%d-%d.sock", os.Getpid(), tabID))
	_ = os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, nil, fmt.Errorf("browser: listening on %s: %w", socketPath, err)
	}

	rec, err := sup.SpawnRenderer(tabID, socketPath)
	if err != nil {
		ln.Close()
		return nil, nil, err
	}

	ln.(*net.UnixListener).SetDeadline(time.Now().Add(10 * time.Second))
	raw, err := ln.Accept()
	if err != nil {
		ln.Close()
		_ = sup.Terminate(rec.PID)
		return nil, nil, fmt.Errorf("browser: renderer for tab %d never connected: %w", tabID, err)
	}

	remote := process.NewRemoteFrameHost(raw, log)
	if err := sup.Attach(rec.PID, remote.Conn()); err != nil {
		log.Warn("browser: attaching renderer connection", zap.Error(err))
	}

	cleanup := func() {
		_ = remote.Close()
		_ = ln.Close()
		_ = sup.Terminate(rec.PID)
		_ = os.Remove(socketPath)
	}
	return remote, cleanup, nil
}

func runUI(host process.FrameHost, log *zap.Logger) {
	a := app.New()
	w := a.NewWindow("webcore browser")
	w.Resize(fyne.NewSize(1024, 768))

	status := widget.NewLabel("Enter a URL and press Enter")

	urlEntry := widget.NewEntry()
	urlEntry.SetPlaceHolder("https://example.com")
	urlEntry.OnSubmitted = func(url string) {
		status.SetText("Loading " + url + "...")
		go func() {
			result, err := host.Navigate(context.Background(), url)
			if err != nil {
				status.SetText("Error: " + err.Error())
				log.Error("browser: navigate failed", zap.String("url", url), zap.Error(err))
				return
			}
			switch result.Kind {
			case process.NavSuccess:
				status.SetText(fmt.Sprintf("%s (status %d)", result.URL, result.Status))
				w.SetTitle(fmt.Sprintf("webcore — %s", host.Title()))
			case process.NavFailed:
				status.SetText("Failed: " + result.FailedKind.String())
			case process.NavCancelled:
				status.SetText("Cancelled")
			}
		}()
	}

	topBar := container.NewBorder(nil, nil, nil, nil, urlEntry)
	content := container.NewBorder(topBar, status, nil, nil, widget.NewLabel(""))
	w.SetContent(content)
	w.Canvas().Focus(urlEntry)

	w.ShowAndRun()
}
