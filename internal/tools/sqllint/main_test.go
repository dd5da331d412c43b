package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRunAcceptsMarkedStatements(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QOne = `--sql 0f6b1b9e-5d0e-4a8c-9a53-2f5c3d1e7a10\nselect 1;\n`\n\nconst Prompt = \"Studio photo with soft light\"\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, stderr.String())
	}
}

func TestRunFlagsMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QBad = `\nselect * from products;\n`\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "QBad") {
		t.Fatalf("stderr should name the constant: %s", stderr.String())
	}
}

func TestRunFlagsDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	marker := "--sql 0f6b1b9e-5d0e-4a8c-9a53-2f5c3d1e7a10"
	writeGo(t, dir, "a.go", "package q\n\nconst QA = `"+marker+"\nselect 1;\n`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QB = `"+marker+"\ndelete from x;\n`\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "already used by QA") {
		t.Fatalf("unexpected stderr: %s", stderr.String())
	}
}
