package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-go/tablequery/internal/config"
	"github.com/vango-go/tablequery/internal/errors"
	"github.com/vango-go/tablequery/pkg/tablequery"
)

// run executes the CLI with args and stdin, returning stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func codeOf(err error) string {
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

func TestDecodeCmd(t *testing.T) {
	out, err := run(t, "", "decode", "https://app.example.com/users?queries%5B0%5D%5Bfield%5D=NAME&queries%5B0%5D%5Btext%5D=ann&perPage=25&page=2")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var state tablequery.State
	if err := json.Unmarshal([]byte(out), &state); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(state.Queries) != 1 || state.Queries[0].Text != "ann" {
		t.Errorf("Queries = %+v", state.Queries)
	}
	if state.Limit != 25 || state.Page != 2 {
		t.Errorf("limit/page = %v/%v, want 25/2", state.Limit, state.Page)
	}
}

func TestDecodeCmd_NumericPolicy(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"keep", []string{"decode", "?page=abc"}, `"page": null`},
		{"fallback", []string{"decode", "--numeric=fallback", "?page=abc"}, `"page": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}

	_, err := run(t, "", "decode", "--numeric=strict", "?page=1")
	if codeOf(err) != "T103" {
		t.Errorf("bad --numeric error = %v, want T103", err)
	}
}

func TestEncodeCmd(t *testing.T) {
	state := `{"queries":[{"field":"NAME","text":"ann"}],"filters":[{"id":"status","options":["active"]}],"limit":10,"page":1}`

	out, err := run(t, state, "encode", "--url", "https://app.example.com/users?tab=all&page=7", "--state", "-")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := "https://app.example.com/users?filters%5Bstatus%5D%5B0%5D=active&page=1&perPage=10&queries%5B0%5D%5Bfield%5D=NAME&queries%5B0%5D%5Btext%5D=ann&tab=all\n"
	if out != want {
		t.Errorf("encode output = %q, want %q", out, want)
	}
}

func TestEncodeCmd_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"page":3}`), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "encode", "-u", "/users?perPage=50", "-s", path)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if out != "/users?page=3\n" {
		t.Errorf("encode output = %q", out)
	}
}

func TestEncodeCmd_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  string
	}{
		{"bad json", "{", []string{"encode", "--url", "/x"}, "T101"},
		{"missing file", "", []string{"encode", "--url", "/x", "--state", "/does/not/exist.json"}, "T101"},
		{"bad url", "{}", []string{"encode", "--url", "http://[::1]:namedport/p"}, "T100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.stdin, tt.args...)
			if codeOf(err) != tt.code {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := run(t, "{}", "encode"); err == nil {
		t.Error("encode without --url should fail")
	}
}

func TestSelectAllCmd(t *testing.T) {
	out, err := run(t, "", "select-all", "--url", "/users?page=2")
	if err != nil {
		t.Fatalf("select-all: %v", err)
	}
	if out != "/users?isSelectedAll=true&page=2\n" {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "", "select-all", "--url", "/users?isSelectedAll=true&page=2", "--value=false")
	if err != nil {
		t.Fatalf("select-all: %v", err)
	}
	if out != "/users?page=2\n" {
		t.Errorf("output = %q", out)
	}

	_, err = run(t, "", "select-all", "--url", "/users", "--value=maybe")
	if codeOf(err) != "T103" {
		t.Errorf("bad --value error = %v, want T103", err)
	}
}

func TestReconcileCmd(t *testing.T) {
	defs := `[
  {"id":"status","label":"Status","options":[{"label":"Active","value":"active"},{"label":"Blocked","value":"blocked","selected":true}]},
  {"id":"role","label":"Role","options":[{"label":"Admin","value":"admin","selected":true}]}
]`

	out, err := run(t, defs, "reconcile", "--url", "/users?filters[status][0]=active")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var got []tablequery.FilterDef
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 2 {
		t.Fatalf("got %d filters, want 2", len(got))
	}
	if !got[0].Options[0].Selected || got[0].Options[1].Selected {
		t.Errorf("status options = %+v", got[0].Options)
	}
	if got[1].Options[0].Selected {
		t.Error("role is absent from the URL and should be cleared")
	}

	_, err = run(t, "not json", "reconcile", "--url", "/users")
	if codeOf(err) != "T102" {
		t.Errorf("bad definitions error = %v, want T102", err)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New()
	cfg.Table.DefaultLimit = 30
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	for _, arg := range []string{dir, filepath.Join(dir, config.ConfigFileName)} {
		out, err := run(t, "", "--config", arg, "decode", "/users")
		if err != nil {
			t.Fatalf("decode with --config %s: %v", arg, err)
		}
		if !strings.Contains(out, `"limit": 30`) {
			t.Errorf("--config %s: output missing configured limit:\n%s", arg, out)
		}
	}

	_, err := run(t, "", "--config", filepath.Join(dir, "missing.json"), "decode", "/users")
	if codeOf(err) != "T121" {
		t.Errorf("missing config error = %v, want T121", err)
	}

	_, err = run(t, "", "--log-level", "loud", "decode", "/users")
	if codeOf(err) != "T122" {
		t.Errorf("bad --log-level error = %v, want T122", err)
	}
}

func TestServerConfig(t *testing.T) {
	cfg := config.New()
	cfg.Server.Address = "127.0.0.1:9999"
	cfg.Server.ShutdownTimeout = "2s"
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = true

	a := &app{cfg: cfg}
	sc, err := a.serverConfig()
	if err != nil {
		t.Fatalf("serverConfig: %v", err)
	}
	if sc.Address != "127.0.0.1:9999" {
		t.Errorf("Address = %q", sc.Address)
	}
	if sc.ShutdownTimeout.String() != "2s" {
		t.Errorf("ShutdownTimeout = %v", sc.ShutdownTimeout)
	}
	if len(sc.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", sc.AllowedOrigins)
	}
	if sc.MetricsEnabled || !sc.TracingEnabled {
		t.Errorf("metrics/tracing = %v/%v", sc.MetricsEnabled, sc.TracingEnabled)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != version+"\n" {
		t.Errorf("version output = %q", out)
	}

	out, err = run(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Go version:") {
		t.Errorf("version output missing Go version:\n%s", out)
	}
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "", "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, config.ConfigFileName) {
		t.Errorf("init output = %q", out)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load after init: %v", err)
	}
	if cfg.Server.Address != config.DefaultAddress {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}

	if _, err := run(t, "", "init", dir); codeOf(err) != "T122" {
		t.Errorf("second init error = %v, want T122", err)
	}
	if _, err := run(t, "", "init", dir, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}
