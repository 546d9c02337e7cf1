package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"step/interpreter-go/pkg/ast"
	"step/interpreter-go/pkg/driver"
	"step/interpreter-go/pkg/interpreter"
	"step/interpreter-go/pkg/lexer"
	"step/interpreter-go/pkg/parser"
)

const cliToolVersion = "step-cli 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runREPL()
		}
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "repl":
		return runREPL()
	case "tokens":
		return runTokens(args[1:])
	case "parse":
		return runParse(args[1:])
	case "run":
		return runEntry(args[1:])
	default:
		return executeFile(args[0])
	}
}

// runEntry executes either an explicit source file or, with no argument,
// the entry named by the nearest step.yml manifest.
func runEntry(args []string) int {
	switch len(args) {
	case 0:
		manifestPath, err := driver.FindManifest(".")
		if err != nil {
			if errors.Is(err, driver.ErrManifestNotFound) {
				fmt.Fprintln(os.Stderr, "step run requires a source file (no step.yml found)")
			} else {
				fmt.Fprintf(os.Stderr, "failed to locate manifest: %v\n", err)
			}
			return 1
		}
		manifest, err := driver.LoadManifest(manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
			return 1
		}
		return executeFile(manifest.EntryPath())
	case 1:
		return executeFile(args[0])
	default:
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return 1
	}
}

func executeFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
		return 1
	}
	if err := interpreter.Run(string(source), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runTokens dumps the token stream, one token per line.
func runTokens(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "step tokens requires a source file")
		return 1
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", args[0], err)
		return 1
	}
	tokens, err := lexer.Tokenize(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, tok := range tokens {
		fmt.Fprintln(os.Stdout, formatToken(tok))
	}
	return 0
}

func formatToken(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenNumber, lexer.TokenIdentifier:
		return tok.Literal
	case lexer.TokenString:
		return "\"" + tok.Literal + "\""
	default:
		return string(tok.Type)
	}
}

// runParse pretty-prints the parsed program.
func runParse(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "step parse requires a source file")
		return 1
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", args[0], err)
		return 1
	}
	program, err := parser.Parse(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprint(os.Stdout, ast.Format(program))
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  step <file.step>")
	fmt.Fprintln(os.Stderr, "  step run [file.step]")
	fmt.Fprintln(os.Stderr, "  step tokens <file.step>")
	fmt.Fprintln(os.Stderr, "  step parse <file.step>")
	fmt.Fprintln(os.Stderr, "  step repl")
}
