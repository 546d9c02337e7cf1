package interpreter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// programFixture is one end-to-end program in testdata/programs.yml.
// A fixture either runs cleanly and must produce Stdout exactly, or it
// must fail with Error as a substring of the diagnostic.
type programFixture struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Stdout string `yaml:"stdout"`
	Error  string `yaml:"error"`
}

func loadProgramFixtures(t *testing.T) []programFixture {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "programs.yml"))
	if err != nil {
		t.Fatalf("failed to read fixture corpus: %v", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var fixtures []programFixture
	if err := decoder.Decode(&fixtures); err != nil {
		t.Fatalf("failed to decode fixture corpus: %v", err)
	}
	if len(fixtures) == 0 {
		t.Fatalf("fixture corpus is empty")
	}
	return fixtures
}

func TestProgramFixtures(t *testing.T) {
	for _, fx := range loadProgramFixtures(t) {
		t.Run(fx.Name, func(t *testing.T) {
			var out bytes.Buffer
			err := Run(fx.Source, &out)
			if fx.Error != "" {
				if err == nil {
					t.Fatalf("expected failure containing %q, program succeeded with output %q", fx.Error, out.String())
				}
				if !strings.Contains(err.Error(), fx.Error) {
					t.Fatalf("expected diagnostic containing %q, got %q", fx.Error, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.String() != fx.Stdout {
				t.Fatalf("unexpected output:\n got: %q\nwant: %q", out.String(), fx.Stdout)
			}
		})
	}
}
