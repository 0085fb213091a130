package filter

import (
	"context"

	"github.com/s0up4200/parsekit/parse"
)

// Filter defines the basic interface for object filters
type Filter interface {
	// Evaluate checks if an object matches the filter criteria
	Evaluate(obj parse.Object) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match is Evaluate with the runtime error reported
	Match(obj parse.Object) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// Evaluator evaluates filters against objects
type Evaluator interface {
	// Evaluate returns the objects the filter matches, in input order
	Evaluate(ctx context.Context, filter CompiledFilter, objects []parse.Object) ([]parse.Object, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
