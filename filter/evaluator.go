package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/parsekit/parse"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of chunks evaluated at once
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the smallest chunk worth evaluating concurrently
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator implements Evaluator, splitting large inputs into
// chunks evaluated in parallel
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate returns the objects the filter matches, in input order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, objects []parse.Object) ([]parse.Object, error) {
	if len(objects) == 0 {
		return []parse.Object{}, nil
	}

	// Small inputs are not worth the goroutines
	if len(objects) < e.batchSize {
		return evaluateSequential(filter, objects), nil
	}

	return e.evaluateConcurrent(ctx, filter, objects)
}

// EvaluateBatch evaluates several named filters against the same objects
func (e *ConcurrentEvaluator) EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, objects []parse.Object) (map[string][]parse.Object, error) {
	results := make(map[string][]parse.Object, len(filters))
	for name, filter := range filters {
		matches, err := e.Evaluate(ctx, filter, objects)
		if err != nil {
			return nil, err
		}
		results[name] = matches
	}
	return results, nil
}

func evaluateSequential(filter CompiledFilter, objects []parse.Object) []parse.Object {
	matches := make([]parse.Object, 0, len(objects)/10)
	for _, obj := range objects {
		if filter.Evaluate(obj) {
			matches = append(matches, obj)
		}
	}
	return matches
}

func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, objects []parse.Object) ([]parse.Object, error) {
	chunkSize := max(len(objects)/e.workerCount, e.batchSize)
	chunks := (len(objects) + chunkSize - 1) / chunkSize
	results := make([][]parse.Object, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := 0; i < chunks; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(objects))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns its slot
			results[i] = evaluateSequential(filter, objects[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	matches := make([]parse.Object, 0, total)
	for _, r := range results {
		matches = append(matches, r...)
	}
	return matches, nil
}
