package runner

import (
	"fmt"
	"path/filepath"

	"github.com/google/cel-go/cel"
)

// DirFilter decides whether a directory found under a source root is archived.
type DirFilter struct {
	expr    string
	program cel.Program
}

// CompileDirFilter compiles a CEL expression over the variables name (base name of the
// directory) and path (full path). The expression must evaluate to a bool.
func CompileDirFilter(expr string) (*DirFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("path", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter program %q: %w", expr, err)
	}

	return &DirFilter{expr: expr, program: program}, nil
}

func (f *DirFilter) Match(path string) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{
		"name": filepath.Base(path),
		"path": path,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q on %s: %w", f.expr, path, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, expected bool", f.expr, out.Value())
	}
	return matched, nil
}

// Apply keeps the paths matched by the filter. A nil filter keeps everything.
func (f *DirFilter) Apply(paths []string) ([]string, error) {
	if f == nil {
		return paths, nil
	}

	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		ok, err := f.Match(p)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, p)
		}
	}
	return kept, nil
}
