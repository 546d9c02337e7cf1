package main

import (
	"os"
	"path/filepath"
	"testing"

	"step/interpreter-go/pkg/lexer"
)

func writeScript(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestExecuteFileExitCodes(t *testing.T) {
	ok := writeScript(t, "ok.step", "assert(1 + 1 == 2);\n")
	if code := executeFile(ok); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	failing := writeScript(t, "fail.step", "assert(0);\n")
	if code := executeFile(failing); code != 1 {
		t.Fatalf("expected exit 1 for failing assert, got %d", code)
	}

	broken := writeScript(t, "broken.step", "if (x { }\n")
	if code := executeFile(broken); code != 1 {
		t.Fatalf("expected exit 1 for parse error, got %d", code)
	}

	if code := executeFile(filepath.Join(t.TempDir(), "missing.step")); code != 1 {
		t.Fatalf("expected exit 1 for missing file")
	}
}

func TestRunDispatch(t *testing.T) {
	script := writeScript(t, "ok.step", ";\n")
	if code := run([]string{script}); code != 0 {
		t.Fatalf("direct file execution failed")
	}
	if code := run([]string{"run", script}); code != 0 {
		t.Fatalf("step run <file> failed")
	}
	if code := run([]string{"--version"}); code != 0 {
		t.Fatalf("--version failed")
	}
	if code := run([]string{"tokens"}); code != 1 {
		t.Fatalf("tokens without a file should fail")
	}
	if code := run([]string{"tokens", script}); code != 0 {
		t.Fatalf("tokens dump failed")
	}
	if code := run([]string{"parse", script}); code != 0 {
		t.Fatalf("parse dump failed")
	}
	if code := run([]string{"run", script, "extra"}); code != 1 {
		t.Fatalf("extra arguments should fail")
	}
}

func TestFormatToken(t *testing.T) {
	cases := []struct {
		token lexer.Token
		want  string
	}{
		{lexer.Token{Type: lexer.TokenNumber, Literal: "1.5"}, "1.5"},
		{lexer.Token{Type: lexer.TokenIdentifier, Literal: "x"}, "x"},
		{lexer.Token{Type: lexer.TokenString, Literal: "ab"}, "\"ab\""},
		{lexer.Token{Type: lexer.TokenLessEqual}, "<="},
		{lexer.Token{Type: lexer.TokenWhile}, "while"},
	}
	for _, tc := range cases {
		if got := formatToken(tc.token); got != tc.want {
			t.Fatalf("formatToken(%v) = %q, want %q", tc.token, got, tc.want)
		}
	}
}

func TestInputComplete(t *testing.T) {
	complete := []string{
		"x = 1;",
		"while (i < 3) { i = i + 1; }",
		"print(\"{ not a brace\");",
		"# just a comment {",
		"",
	}
	for _, chunk := range complete {
		if !inputComplete(chunk) {
			t.Fatalf("expected %q to be complete", chunk)
		}
	}
	incomplete := []string{
		"while (i < 3) {",
		"print(",
		"a = [1,",
		"s = \"open",
	}
	for _, chunk := range incomplete {
		if inputComplete(chunk) {
			t.Fatalf("expected %q to be incomplete", chunk)
		}
	}
}
