package process

import (
	"context"
	"testing"
)

type stubFrameHost struct {
	kind  Kind
	tabID uint64
}

func (s *stubFrameHost) Navigate(ctx context.Context, url string) (NavigationResult, error) {
	return NavigationResult{Kind: NavSuccess, URL: url, Status: 200}, nil
}
func (s *stubFrameHost) ExecuteScript(ctx context.Context, src string) (string, error) { return "", nil }
func (s *stubFrameHost) URL() string                                                   { return "" }
func (s *stubFrameHost) Title() string                                                 { return "" }
func (s *stubFrameHost) IsLoading() bool                                               { return false }
func (s *stubFrameHost) Stop() error                                                   { return nil }
func (s *stubFrameHost) Reload(ctx context.Context) (NavigationResult, error)          { return NavigationResult{}, nil }
func (s *stubFrameHost) GoBack(ctx context.Context) (NavigationResult, error)          { return NavigationResult{}, nil }
func (s *stubFrameHost) GoForward(ctx context.Context) (NavigationResult, error)       { return NavigationResult{}, nil }

func TestSpawnArgsForRendererIncludesTabID(t *testing.T) {
	args := spawnArgs(KindRenderer, 42, "/tmp/sock")
	want := []string{"--type=renderer", "--ipc=/tmp/sock", "--tab=42"}
	if len(args) != len(want) {
		t.Fatalf("got %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("got %v, want %v", args, want)
		}
	}
}

func TestSpawnArgsForServiceOmitsTabID(t *testing.T) {
	args := spawnArgs(KindNetwork, 0, "/tmp/net.sock")
	for _, a := range args {
		if a == "--tab=0" {
			t.Fatalf("service processes should not receive a --tab flag, got %v", args)
		}
	}
}

func TestSingleProcessModeSubstitutesStub(t *testing.T) {
	factory := func(kind Kind, tabID uint64) FrameHost {
		return &stubFrameHost{kind: kind, tabID: tabID}
	}
	sup := NewSupervisor("", true, factory, nil)

	rec, err := sup.SpawnRenderer(7, "inproc://7")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Host == nil {
		t.Fatalf("expected an in-process FrameHost stub to be attached")
	}
	result, err := rec.Host.Navigate(context.Background(), "https://example.com")
	if err != nil || result.Kind != NavSuccess {
		t.Fatalf("unexpected navigate result: %+v, err=%v", result, err)
	}
}

func TestSpawnServiceRejectsBrowserAndRendererKinds(t *testing.T) {
	sup := NewSupervisor("", true, nil, nil)
	if _, err := sup.SpawnService(KindRenderer, "x"); err == nil {
		t.Fatalf("expected an error spawning KindRenderer as a service")
	}
	if _, err := sup.SpawnService(KindBrowser, "x"); err == nil {
		t.Fatalf("expected an error spawning KindBrowser as a service")
	}
}

func TestTerminateRemovesRecord(t *testing.T) {
	sup := NewSupervisor("", true, nil, nil)
	rec, err := sup.SpawnRenderer(1, "inproc://1")
	if err != nil {
		t.Fatal(err)
	}
	if err := sup.Terminate(rec.PID); err != nil {
		t.Fatal(err)
	}
	if _, ok := sup.Record(rec.PID); ok {
		t.Fatalf("expected the record to be gone after Terminate")
	}
}

func TestProcessesReturnsAllTrackedRecords(t *testing.T) {
	sup := NewSupervisor("", true, nil, nil)
	if _, err := sup.SpawnRenderer(1, "inproc://1"); err != nil {
		t.Fatal(err)
	}
	if _, err := sup.SpawnService(KindNetwork, "inproc://net"); err != nil {
		t.Fatal(err)
	}
	if got := len(sup.Processes()); got != 2 {
		t.Fatalf("expected 2 tracked processes, got %d", got)
	}
}
