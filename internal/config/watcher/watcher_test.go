package watcher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/docshare/internal/config"
	"github.com/dshills/docshare/internal/logging"
	"github.com/dshills/docshare/internal/notify"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docshare.toml")
	writeFile(t, path, "[log]\nlevel = \"info\"\n")

	got := make(chan *config.Config, 4)
	w, err := New(path, func(cfg *config.Config) { got <- cfg }, WithDebounce(20*time.Millisecond), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	writeFile(t, path, "[log]\nlevel = \"debug\"\n")

	select {
	case cfg := <-got:
		if cfg.Log.Level != "debug" {
			t.Errorf("reloaded level = %q", cfg.Log.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
	waitFor(t, func() bool { return w.Stats().Reloads >= 1 })
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docshare.toml")
	writeFile(t, path, "")

	calls := make(chan struct{}, 4)
	w, err := New(path, func(*config.Config) { calls <- struct{}{} }, WithDebounce(10*time.Millisecond), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1")
	select {
	case <-calls:
		t.Error("handler called for an unrelated file")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherKeepsPreviousOnInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docshare.toml")
	writeFile(t, path, "")

	calls := make(chan struct{}, 4)
	w, err := New(path, func(*config.Config) { calls <- struct{}{} }, WithDebounce(10*time.Millisecond), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	writeFile(t, path, "[log]\nlevel = \"loud\"\n")
	waitFor(t, func() bool { return w.Stats().Errors >= 1 })
	if w.Stats().LastError == nil {
		t.Error("LastError not recorded")
	}
	select {
	case <-calls:
		t.Error("handler called with an invalid config")
	default:
	}
}

func TestWatcherDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docshare.toml")
	writeFile(t, path, "")

	w, err := New(path, nil, WithDebounce(200*time.Millisecond), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		writeFile(t, path, "[handles]\nmax_keys = 1\n")
		time.Sleep(10 * time.Millisecond)
	}
	waitFor(t, func() bool { return w.Stats().Reloads >= 1 })
	time.Sleep(300 * time.Millisecond)
	if n := w.Stats().Reloads; n != 1 {
		t.Errorf("Reloads = %d, want 1", n)
	}
}

func TestWatcherCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docshare.toml")
	writeFile(t, path, "")
	w, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
}

func TestApply(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(&buf, logging.Options{Level: "info"})
	if err != nil {
		t.Fatal(err)
	}
	n := notify.New(notify.WithLogger(logging.Discard()))

	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Notify.KeyspaceEvents = "Kg"
	Apply(l, n)(cfg)

	if l.Level().String() != "ERROR" {
		t.Errorf("level = %v", l.Level())
	}
	if n.Mask() != notify.MustParseMask("Kg") {
		t.Errorf("mask = %v", n.Mask())
	}
}
