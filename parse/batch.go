package parse

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds the requests a batch helper runs at once
const DefaultBatchConcurrency = 5

// BatchResult contains the results of a batch operation
type BatchResult struct {
	Requested int
	// Succeeded holds the ids of the objects deleted or created
	Succeeded []string
	Failed    []BatchError
}

// BatchError contains information about a failed item
type BatchError struct {
	// Index is the item's position in the input
	Index    int
	ObjectID string
	Err      error
}

// Error implements the error interface
func (e BatchError) Error() string {
	if e.ObjectID != "" {
		return fmt.Sprintf("item %d (%s): %v", e.Index, e.ObjectID, e.Err)
	}
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error
func (e BatchError) Unwrap() error {
	return e.Err
}

type batchItem struct {
	index    int
	objectID string
}

// runBatch runs fn for n items with bounded concurrency and collects the
// outcome of each. Individual failures do not stop the others.
func (c *Client) runBatch(ctx context.Context, n int, fn func(ctx context.Context, i int) (string, error)) (BatchResult, error) {
	result := BatchResult{Requested: n}
	if n == 0 {
		return result, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultBatchConcurrency)

	successChan := make(chan batchItem, n)
	errorChan := make(chan BatchError, n)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			// Items not started before cancellation fail with the context error
			if err := ctx.Err(); err != nil {
				errorChan <- BatchError{Index: i, Err: err}
				return err
			}
			id, err := fn(ctx, i)
			if err != nil {
				errorChan <- BatchError{Index: i, ObjectID: id, Err: err}
			} else {
				successChan <- batchItem{index: i, objectID: id}
			}
			return nil
		})
	}

	waitErr := g.Wait()
	close(successChan)
	close(errorChan)

	var succeeded []batchItem
	for item := range successChan {
		succeeded = append(succeeded, item)
	}
	sort.Slice(succeeded, func(a, b int) bool { return succeeded[a].index < succeeded[b].index })
	for _, item := range succeeded {
		result.Succeeded = append(result.Succeeded, item.objectID)
	}

	for e := range errorChan {
		result.Failed = append(result.Failed, e)
	}
	sort.Slice(result.Failed, func(a, b int) bool { return result.Failed[a].Index < result.Failed[b].Index })

	var merr *multierror.Error
	for _, e := range result.Failed {
		merr = multierror.Append(merr, e)
	}
	if waitErr != nil && len(result.Failed) == 0 {
		merr = multierror.Append(merr, waitErr)
	}

	c.logger.Debug().
		Int("requested", result.Requested).
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Msg("Batch finished")

	return result, merr.ErrorOrNil()
}

// BatchDelete deletes objects concurrently. The returned error aggregates
// every failed delete and is nil when all succeeded.
func (c *Client) BatchDelete(ctx context.Context, className string, objectIDs []string, opts ...CallOption) (BatchResult, error) {
	return c.runBatch(ctx, len(objectIDs), func(ctx context.Context, i int) (string, error) {
		id := objectIDs[i]
		return id, c.DeleteObject(ctx, className, id, opts...)
	})
}

// BatchCreate creates objects concurrently. Succeeded lists the new ids in
// input order, leaving out failures.
func (c *Client) BatchCreate(ctx context.Context, className string, objects []map[string]Value, opts ...CallOption) (BatchResult, error) {
	return c.runBatch(ctx, len(objects), func(ctx context.Context, i int) (string, error) {
		created, err := c.CreateObject(ctx, className, objects[i], opts...)
		if err != nil {
			return "", err
		}
		return created.ObjectID, nil
	})
}
