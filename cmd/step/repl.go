package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"step/interpreter-go/pkg/interpreter"
	"step/interpreter-go/pkg/parser"
	"step/interpreter-go/pkg/runtime"
)

const (
	historyFile = ".step_history"
	promptMain  = "step> "
	promptCont  = "  ... "
)

// runREPL reads statements line by line, continuing the prompt while
// brackets are unbalanced, and evaluates each complete chunk against one
// persistent interpreter so bindings survive across inputs.
func runREPL() int {
	fmt.Fprintf(os.Stdout, "%s\nCtrl+C cancels input, Ctrl+D exits.\n", cliToolVersion)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, historyFile)
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	interp := interpreter.New(os.Stdout)
	var buffer []string
	for {
		prompt := promptMain
		if len(buffer) > 0 {
			prompt = promptCont
		}
		input, err := line.Prompt(prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			buffer = nil
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(os.Stdout)
			saveHistory(line, historyPath)
			return 0
		case err != nil:
			fmt.Fprintf(os.Stderr, "repl: %v\n", err)
			return 1
		}

		buffer = append(buffer, input)
		chunk := strings.Join(buffer, "\n")
		if !inputComplete(chunk) {
			continue
		}
		buffer = nil
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		line.AppendHistory(chunk)

		program, err := parser.Parse(chunk)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		result, err := interp.Evaluate(program)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if _, isNone := result.(runtime.NoneValue); !isNone {
			if rendered, err := runtime.Render(result); err == nil {
				fmt.Fprintln(os.Stdout, rendered)
			}
		}
	}
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

// inputComplete reports whether every bracket opened outside a string
// literal has been closed, so multi-line blocks keep the continuation
// prompt until their closing brace.
func inputComplete(chunk string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(chunk); i++ {
		ch := chunk[i]
		if inString {
			if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '#':
			for i < len(chunk) && chunk[i] != '\n' {
				i++
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth <= 0 && !inString
}
