package filter

import (
	"context"
	"strings"

	"github.com/s0up4200/parsekit/parse"
)

var defaultCompiler = NewExprCompiler(WithCache(256))

// CompileFilter compiles an expression with the shared, cached compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

// Apply returns the objects matching expression, in input order. An empty
// expression matches everything.
func Apply(ctx context.Context, objects []parse.Object, expression string) ([]parse.Object, error) {
	if strings.TrimSpace(expression) == "" {
		return objects, nil
	}

	filter, err := CompileFilter(expression)
	if err != nil {
		return nil, err
	}

	return NewConcurrentEvaluator().Evaluate(ctx, filter, objects)
}
