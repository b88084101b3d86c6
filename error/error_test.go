package error

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var errTest = errors.New("test error")

func TestSpecError_Error(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.agl")
	err := os.WriteFile(path, []byte("grammar G {\n  S = missing ;\n}\n"), 0600)
	if err != nil {
		t.Fatal(err)
	}

	e := &SpecError{
		Cause:      errTest,
		Detail:     "missing",
		Rule:       "S",
		FilePath:   path,
		SourceName: "test.agl",
		Row:        2,
		Col:        7,
	}
	want := "test.agl: 2:7: error: test error: missing (in rule S)\n      S = missing ;"
	if got := e.Error(); got != want {
		t.Fatalf("unexpected message; want: %q, got: %q", want, got)
	}
}

func TestSpecErrors(t *testing.T) {
	errs := SpecErrors{
		{
			Cause: errors.New("first"),
			Row:   1,
		},
		{
			Cause: errTest,
			Row:   3,
			Col:   4,
		},
	}
	if !errors.Is(errs, errTest) {
		t.Fatalf("errors.Is must find a cause in the list")
	}
	lines := strings.Split(errs.Error(), "\n")
	if len(lines) != 2 || lines[0] != "1: error: first" || lines[1] != "3:4: error: test error" {
		t.Fatalf("unexpected message: %q", errs.Error())
	}
}
