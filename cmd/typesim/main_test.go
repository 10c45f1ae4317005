package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"typesim/internal/observ"
)

const testDefs = `
[[type]]
name = "char"
kind = "atomic"
size = 1
align = 2

[[type]]
name = "int"
kind = "atomic"
size = 4
align = 4

[[type]]
name = "s2"
kind = "struct"
members = ["char", "int"]
`

// resetFlags restores every flag to its default so commands can be
// executed repeatedly within one test binary.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI with an empty config so the developer's own
// typesim.toml never leaks into tests.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "typesim.toml")
	if err := os.WriteFile(cfg, []byte("[repl]\ncolor = \"off\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
	// cobra only inherits the root context into subcommands whose context
	// is unset, so clear the one left over from a previous test.
	for _, sub := range rootCmd.Commands() {
		sub.SetContext(t.Context())
	}
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeDefs(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "defs.toml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDescribeJSON(t *testing.T) {
	defs := writeDefs(t, testDefs)
	out, err := execute(t, "", "describe", "--defs", defs, "--format", "json", "s2")
	if err != nil {
		t.Fatalf("describe: %v\n%s", err, out)
	}
	var got []struct {
		Name     string   `json:"name"`
		Ordering []string `json:"optimized_order"`
		Modes    []struct {
			Mode string `json:"mode"`
			Size int    `json:"size"`
			Loss int    `json:"loss"`
		} `json:"modes"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(got) != 1 || got[0].Name != "s2" || len(got[0].Modes) != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if m := got[0].Modes[0]; m.Mode != "unpacked" || m.Size != 8 || m.Loss != 3 {
		t.Fatalf("unpacked = %+v, want size 8 loss 3", m)
	}
}

func TestDescribeAllPretty(t *testing.T) {
	defs := writeDefs(t, testDefs)
	out, err := execute(t, "", "describe", "--defs", defs, "--jobs", "2")
	if err != nil {
		t.Fatalf("describe: %v\n%s", err, out)
	}
	for _, want := range []string{"char (atomic)", "int (atomic)", "s2 (struct)", "optimized order: int char"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "char (atomic)") > strings.Index(out, "s2 (struct)") {
		t.Fatalf("reports not in registration order:\n%s", out)
	}
}

func TestDescribeUnknownType(t *testing.T) {
	if _, err := execute(t, "", "describe", "ghost"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestDescribeBadFormat(t *testing.T) {
	_, err := execute(t, "", "describe", "--format", "yaml")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	good := writeDefs(t, testDefs)
	bad := writeDefs(t, "[[type]]\nname = \"s\"\nkind = \"struct\"\nmembers = [\"nope\"]\n")

	out, err := execute(t, "", "check", good)
	if err != nil {
		t.Fatalf("check good: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok (3 types)") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = execute(t, "", "check", good, bad)
	if err == nil {
		t.Fatalf("expected check to fail")
	}
	if !strings.Contains(out, `[TYPE ERROR]:`) || !strings.Contains(out, `type "nope" does not exist`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReplPiped(t *testing.T) {
	defs := writeDefs(t, testDefs)
	stdin := "describe s2\nunion u int s2\nlist\nexit\n"
	out, err := execute(t, stdin, "repl", defs)
	if err != nil {
		t.Fatalf("repl: %v\n%s", err, out)
	}
	if strings.Contains(out, ">> ") {
		t.Fatalf("prompt printed for piped input:\n%s", out)
	}
	for _, want := range []string{"s2 (struct)", "u     union   int s2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "", "version", "--format", "json", "--full")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if payload.Tool != "typesim" || payload.Version == "" || payload.GitCommit == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestTimings(t *testing.T) {
	defs := writeDefs(t, testDefs)
	out, err := execute(t, "", "--timings", "describe", "--defs", defs, "int")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.Contains(out, "timings:") || !strings.Contains(out, "load defs.toml") {
		t.Fatalf("missing timing summary:\n%s", out)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stderr closed") }

func TestTimingsWriteFailure(t *testing.T) {
	saved := current
	t.Cleanup(func() { current = saved })
	current.timings = true
	current.timer = observ.NewTimer()

	err := printTimings(failingWriter{})
	if err == nil || !strings.Contains(err.Error(), "stderr closed") {
		t.Fatalf("printTimings error = %v, want write failure", err)
	}

	current.timings = false
	if err := printTimings(failingWriter{}); err != nil {
		t.Fatalf("printTimings without --timings: %v", err)
	}
}
