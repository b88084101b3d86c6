package grammar

import (
	"errors"
	"fmt"
	"io"
	"os"

	verr "github.com/dhakehurst/sppf/error"
	"github.com/dhakehurst/sppf/grammar/rule"
	"github.com/dhakehurst/sppf/spec"
)

// CompileSource parses a grammar text and compiles the grammar named name. An empty name selects
// the last grammar of the text.
func CompileSource(r io.Reader, name string, opts ...CompileOption) (*rule.Set, error) {
	ast, err := spec.Parse(r)
	if err != nil {
		return nil, err
	}
	b := GrammarBuilder{
		AST: ast,
	}
	grammars, err := b.Build()
	if err != nil {
		return nil, err
	}
	g, err := FindGrammar(grammars, name)
	if err != nil {
		return nil, err
	}
	return Compile(g, opts...)
}

// CompileFile is CompileSource over the file at path. The errors it returns refer to the file.
func CompileFile(path string, name string, opts ...CompileOption) (*rule.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the grammar file %s: %w", path, err)
	}
	defer f.Close()

	set, err := CompileSource(f, name, opts...)
	if err != nil {
		SetSource(err, path, path)
		return nil, err
	}
	return set, nil
}

// SetSource records the file path and the source name in every SpecError err holds.
func SetSource(err error, filePath, sourceName string) {
	var specErrs verr.SpecErrors
	if errors.As(err, &specErrs) {
		for _, e := range specErrs {
			e.FilePath = filePath
			e.SourceName = sourceName
		}
		return
	}
	var specErr *verr.SpecError
	if errors.As(err, &specErr) {
		specErr.FilePath = filePath
		specErr.SourceName = sourceName
	}
}
