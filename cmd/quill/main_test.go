package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const appDoc = `
classes:
  - name: Main
    methods:
      - name: main
        static: true
        returns: String
        args:
          - {name: name, type: String}
        body:
          - kind: return
            value: {kind: binary, op: "..", left: "hello ", right: {kind: arg, name: name}}
      - name: divide
        static: true
        returns: Integer
        body:
          - kind: return
            value: {kind: binary, op: "/", left: 1, right: 0}
      - name: checkMath
        static: true
        returns: Boolean
        attributes: [Test]
        body:
          - kind: return
            value: {kind: binary, op: "=", left: 4, right: {kind: binary, op: "+", left: 2, right: 2}}
  - name: Widget
    methods:
      - name: checkSelf
        returns: Boolean
        attributes: [Test]
        body:
          - kind: return
            value: {kind: binary, op: "=", left: {kind: this}, right: {kind: this}}
`

const failingDoc = `
classes:
  - name: Broken
    methods:
      - name: checkFalse
        static: true
        returns: Boolean
        attributes: [Test]
        body:
          - kind: return
            value: false
      - name: checkFault
        static: true
        returns: Integer
        attributes: [Test]
        body:
          - kind: return
            value: {kind: binary, op: "%", left: 1, right: 0}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// execute runs the root command against an isolated config file.
func execute(t *testing.T, configTOML string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cfgPath := writeFile(t, "quill.toml", configTOML)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRunPrintsResult(t *testing.T) {
	path := writeFile(t, "app.yaml", appDoc)
	out, err := execute(t, "", "run", path, "world")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out); got != "hello world" {
		t.Fatalf("got %q want %q", got, "hello world")
	}
}

func TestRunReportsFault(t *testing.T) {
	path := writeFile(t, "app.yaml", appDoc)
	_, err := execute(t, "", "run", path, "--method", "divide")
	if err == nil {
		t.Fatalf("expected fault")
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("got %v want division by zero", err)
	}
	rendered := renderError(err)
	if !strings.Contains(rendered, "error:") || !strings.Contains(rendered, "at Main.divide") {
		t.Fatalf("got rendered error %q", rendered)
	}

	_, err = execute(t, "", "run", path, "--method", "missing")
	if err == nil || !strings.Contains(err.Error(), "method not found") {
		t.Fatalf("got %v want method not found", err)
	}
}

func TestTestCommandWritesCoverageAndHistory(t *testing.T) {
	path := writeFile(t, "app.yaml", appDoc)
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "coverage.xml")
	dbPath := filepath.Join(dir, "history.db")

	out, err := execute(t, "", "test", path, "--coverage", xmlPath, "--history", dbPath)
	if err != nil {
		t.Fatalf("test: %v\n%s", err, out)
	}
	for _, want := range []string{"PASS Main.checkMath", "PASS Widget.checkSelf", "2 passed, 0 failed", "50%", "(2/4 statements)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(xmlPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), `<coverage total-statements="4" covered-statements="2" coverage="50%">`) {
		t.Fatalf("unexpected report:\n%s", data)
	}

	out, err = execute(t, "", "cover", "history", "--db", dbPath)
	if err != nil {
		t.Fatalf("cover history: %v", err)
	}
	if !strings.Contains(out, "app.yaml") || !strings.Contains(out, "50% (2/4)") {
		t.Fatalf("unexpected history:\n%s", out)
	}
}

func TestTestCommandReportsFailures(t *testing.T) {
	path := writeFile(t, "broken.yaml", failingDoc)
	out, err := execute(t, "", "test", path)
	if err == nil || !strings.Contains(err.Error(), "2 of 2 tests failed") {
		t.Fatalf("got %v want 2 of 2 tests failed", err)
	}
	for _, want := range []string{"FAIL Broken.checkFalse", "test returned false", "FAIL Broken.checkFault", "division by zero"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTestCommandEnforcesMinimum(t *testing.T) {
	path := writeFile(t, "app.yaml", appDoc)

	_, err := execute(t, "", "test", path, "--min", "60")
	if err == nil || !strings.Contains(err.Error(), "below the minimum 60%") {
		t.Fatalf("got %v want minimum error", err)
	}

	_, err = execute(t, "[coverage]\nmin_percentage = 90\n", "test", path)
	if err == nil || !strings.Contains(err.Error(), "below the minimum 90%") {
		t.Fatalf("got %v want configured minimum error", err)
	}

	if _, err := execute(t, "[coverage]\nmin_percentage = 90\n", "test", path, "--min", "50"); err != nil {
		t.Fatalf("flag should override config: %v", err)
	}
}

func TestCoverMergeSumsVisits(t *testing.T) {
	path := writeFile(t, "app.yaml", appDoc)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.xml")
	second := filepath.Join(dir, "b.xml")
	merged := filepath.Join(dir, "merged.xml")

	for _, out := range []string{first, second} {
		if _, err := execute(t, "", "test", path, "--coverage", out); err != nil {
			t.Fatalf("test: %v", err)
		}
	}
	out, err := execute(t, "", "cover", "merge", first, second, "-o", merged)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(out, "merged 2 reports") {
		t.Fatalf("got %q", out)
	}

	report, err := readReport(merged)
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	visits := report.Classes[0].Methods[2].Statements[0].Visits
	if visits != 2 {
		t.Fatalf("got %d visits want 2", visits)
	}
	if _, covered := report.Totals(); covered != 2 {
		t.Fatalf("got %d covered want 2", covered)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "[engine]\nstep_quota = 100\n", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out); got != "quill dev (steps=100 recursion=256)" {
		t.Fatalf("got %q", got)
	}
}

func TestBadConfigFails(t *testing.T) {
	_, err := execute(t, "[engine\n", "version")
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("got %v want parse error", err)
	}
}
