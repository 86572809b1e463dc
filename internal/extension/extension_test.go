package extension

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	elua "github.com/dshills/docshare/internal/extension/lua"
	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/jsonapi"
	"github.com/dshills/docshare/internal/keyspace"
	"github.com/dshills/docshare/internal/notify"
)

// newServer returns a host with the JSON API exported and docs stored.
func newServer(t *testing.T, docs map[string]string) *host.Server {
	t.Helper()
	srv := host.NewServer()
	err := srv.Invoke(context.Background(), "seed", func(hc *host.Context) error {
		if err := jsonapi.Export(hc, jsonapi.ExportOptions{}); err != nil {
			return err
		}
		typ, _ := jsonapi.DocumentType(hc.Server().Store())
		for name, text := range docs {
			k, err := hc.OpenKey(name, keyspace.ModeWrite)
			if err != nil {
				return err
			}
			if err := k.SetValue(typ, document.MustParse(text)); err != nil {
				return err
			}
			_ = k.Close()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed error = %v", err)
	}
	return srv
}

func newExtension(t *testing.T, caps ...elua.Capability) *Extension {
	t.Helper()
	m := &Manifest{Name: "test", Version: "1.0.0", Main: "init.lua", Capabilities: caps}
	e, err := New(m)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestExtensionReadsDocument(t *testing.T) {
	srv := newServer(t, map[string]string{"doc": `{"items":[1,2,3],"name":"x"}`})
	e := newExtension(t, elua.CapabilityAPI)

	err := e.RunString(context.Background(), srv, `
		local host = require("host")
		local api = assert(host.get_api("DocShare_V1"))
		local k = api.open_key("doc")
		local p = api.get_path(k, "$.items")
		status, jtype, size = api.get_info(p)
		is_array = jtype == api.types.ARRAY
		missing = api.get_path(k, "$.nope")
		api.close_key(k)
	`)
	if err != nil {
		t.Fatalf("RunString error = %v", err)
	}

	if got := e.Global("status"); got != int64(0) {
		t.Errorf("status = %v", got)
	}
	if got := e.Global("jtype"); got != int64(jsonapi.Array) {
		t.Errorf("jtype = %v, want %d", got, jsonapi.Array)
	}
	if got := e.Global("size"); got != int64(3) {
		t.Errorf("size = %v", got)
	}
	if got := e.Global("is_array"); got != true {
		t.Errorf("is_array = %v", got)
	}
	if got := e.Global("missing"); got != nil {
		t.Errorf("missing path handle = %v, want nil", got)
	}
}

func TestExtensionV2Table(t *testing.T) {
	srv := newServer(t, map[string]string{"doc": `{"name":"ada"}`})
	e := newExtension(t, elua.CapabilityAPI)

	err := e.RunString(context.Background(), srv, `
		local api = assert(require("host").get_api("DocShare_V2"))
		local k = api.open_key("doc")
		local p = api.get_path(k, "$.name")
		json = api.get_json(p)
		len = api.get_len(p)
		api.close_path(p)
		after = api.get_json(p)
		api.close_key(k)
	`)
	if err != nil {
		t.Fatalf("RunString error = %v", err)
	}
	if got := e.Global("json"); got != `"ada"` {
		t.Errorf("json = %v", got)
	}
	if got := e.Global("len"); got != int64(3) {
		t.Errorf("len = %v", got)
	}
	if got := e.Global("after"); got != nil {
		t.Errorf("get_json after close_path = %v, want nil", got)
	}
}

func TestExtensionUnknownAPI(t *testing.T) {
	srv := newServer(t, nil)
	e := newExtension(t, elua.CapabilityAPI)

	err := e.RunString(context.Background(), srv, `
		api, msg = require("host").get_api("Nope_V9")
	`)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Global("api"); got != nil {
		t.Errorf("api = %v", got)
	}
	if msg, _ := e.Global("msg").(string); msg == "" {
		t.Error("no error message for unknown API")
	}
}

func TestExtensionCapabilityDenied(t *testing.T) {
	srv := newServer(t, map[string]string{"doc": `{}`})
	e := newExtension(t)

	tests := []struct {
		name string
		code string
	}{
		{"get_api", `require("host").get_api("DocShare_V1")`},
		{"notify", `require("host").notify("module", "x", "doc")`},
		{"keys", `require("host").keys()`},
		{"exists", `require("host").exists("doc")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.RunString(context.Background(), srv, tt.code)
			if err == nil || !strings.Contains(err.Error(), "capability not granted") {
				t.Errorf("RunString error = %v, want capability error", err)
			}
		})
	}
}

func TestExtensionLeakedHandleClosed(t *testing.T) {
	srv := newServer(t, map[string]string{"doc": `{"a":1}`})
	e := newExtension(t, elua.CapabilityAPI)

	err := e.RunString(context.Background(), srv, `
		local api = require("host").get_api("DocShare_V1")
		leaked = api.open_key("doc")
	`)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = srv.Invoke(ctx, "check", func(hc *host.Context) error {
		_, err := hc.OpenKey("doc", keyspace.ModeRead)
		return err
	})
	if err != nil {
		t.Fatalf("key still locked after the frame ended: %v", err)
	}
}

func TestExtensionNotify(t *testing.T) {
	srv := newServer(t, map[string]string{"doc": `{}`})
	e := newExtension(t, elua.CapabilityNotify)

	var mu sync.Mutex
	var got []notify.Event
	_, err := srv.Notifier().Subscribe("keyevent.module.**", "", func(_ context.Context, ev notify.Event) error {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.RunString(context.Background(), srv, `require("host").notify("module", "ext.touch", "doc")`); err != nil {
		t.Fatalf("RunString error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Name != "ext.touch" || got[0].Key != "doc" {
		t.Errorf("events = %+v", got)
	}

	err = e.RunString(context.Background(), srv, `require("host").notify("bogus", "x", "doc")`)
	if err == nil {
		t.Error("notify with unknown kind succeeded")
	}
}

func TestExtensionKeys(t *testing.T) {
	srv := newServer(t, map[string]string{"user:1": `{}`, "user:2": `{}`, "order:1": `{}`})
	e := newExtension(t, elua.CapabilityKeyspaceRead)

	err := e.RunString(context.Background(), srv, `
		local host = require("host")
		users = host.keys("user:*")
		has = host.exists("order:1")
		hasnt = host.exists("order:2")
	`)
	if err != nil {
		t.Fatal(err)
	}
	users, _ := e.Global("users").([]any)
	if len(users) != 2 || users[0] != "user:1" || users[1] != "user:2" {
		t.Errorf("users = %v", e.Global("users"))
	}
	if e.Global("has") != true || e.Global("hasnt") != false {
		t.Errorf("exists = %v/%v", e.Global("has"), e.Global("hasnt"))
	}
}

func TestExtensionCall(t *testing.T) {
	srv := newServer(t, map[string]string{"doc": `{"n":[1,2]}`})
	e := newExtension(t, elua.CapabilityAPI)

	err := e.RunString(context.Background(), srv, `
		function size_of(key, path)
			local api = require("host").get_api("DocShare_V1")
			local k = api.open_key(key)
			if k == nil then return -1 end
			local _, _, size = api.get_info(api.get_path(k, path))
			api.close_key(k)
			return size
		end
	`)
	if err != nil {
		t.Fatal(err)
	}

	out, err := e.Call(context.Background(), srv, "size_of", "doc", "$.n")
	if err != nil {
		t.Fatalf("Call error = %v", err)
	}
	if len(out) != 1 || out[0] != int64(2) {
		t.Errorf("Call() = %v", out)
	}

	out, err = e.Call(context.Background(), srv, "size_of", "absent", "$")
	if err != nil || len(out) != 1 || out[0] != int64(-1) {
		t.Errorf("Call(absent) = %v, %v", out, err)
	}

	if _, err := e.Call(context.Background(), srv, "nope"); !errors.Is(err, elua.ErrNotFunction) {
		t.Errorf("Call(nope) error = %v", err)
	}
}

func TestExtensionHostOutsideFrame(t *testing.T) {
	e := newExtension(t, elua.CapabilityKeyspaceRead)
	err := e.state.DoString(context.Background(), `require("host").keys()`)
	if err == nil || !strings.Contains(err.Error(), "no active command frame") {
		t.Errorf("error = %v", err)
	}
}

func TestExtensionRequires(t *testing.T) {
	srv := host.NewServer()
	m := &Manifest{Name: "needy", Version: "1.0.0", Main: "init.lua", Requires: []string{"DocShare_V1"}}
	e, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if err := e.RunString(context.Background(), srv, `x = 1`); !errors.Is(err, ErrMissingAPI) {
		t.Errorf("RunString error = %v, want ErrMissingAPI", err)
	}
}

func TestNewCapabilityAllowList(t *testing.T) {
	m := &Manifest{Name: "greedy", Version: "1.0.0", Main: "init.lua",
		Capabilities: []elua.Capability{elua.CapabilityAPI, elua.CapabilityNotify}}

	if _, err := New(m, WithAllowedCapabilities(elua.CapabilityAPI)); !errors.Is(err, ErrCapabilityDenied) {
		t.Errorf("New error = %v, want ErrCapabilityDenied", err)
	}
	e, err := New(m, WithAllowedCapabilities(elua.CapabilityAPI, elua.CapabilityNotify))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer e.Close()
	if got := e.state.Sandbox().Capabilities(); len(got) != 2 {
		t.Errorf("granted = %v", got)
	}
}

func TestLoadDirAndRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stamp", ManifestFile), `{"name":"stamp","version":"1.0.0","capabilities":["keyspace.read"]}`)
	writeFile(t, filepath.Join(dir, "stamp", "init.lua"), `count = #require("host").keys()`)
	writeFile(t, filepath.Join(dir, "solo.lua"), `ran = true`)
	writeFile(t, filepath.Join(dir, "README.md"), `ignored`)
	writeFile(t, filepath.Join(dir, "empty", "notes.txt"), `no manifest`)

	exts, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir error = %v", err)
	}
	if len(exts) != 2 {
		t.Fatalf("loaded %d extensions, want 2", len(exts))
	}
	srv := newServer(t, map[string]string{"a": `1`, "b": `2`})
	for _, e := range exts {
		defer e.Close()
		if err := e.Run(context.Background(), srv); err != nil {
			t.Errorf("%s Run error = %v", e.Name(), err)
		}
	}
	if exts[0].Name() != "solo" || exts[0].Global("ran") != true {
		t.Errorf("solo: name %q ran %v", exts[0].Name(), exts[0].Global("ran"))
	}
	if exts[1].Name() != "stamp" || exts[1].Global("count") != int64(2) {
		t.Errorf("stamp: name %q count %v", exts[1].Name(), exts[1].Global("count"))
	}
}

func TestClosedExtension(t *testing.T) {
	srv := newServer(t, nil)
	e := newExtension(t)
	_ = e.Close()
	if err := e.RunString(context.Background(), srv, `x = 1`); !errors.Is(err, ErrClosed) {
		t.Errorf("RunString after Close error = %v", err)
	}
}
