package parse

import (
	"context"
	"net/http"
	"net/url"
)

type resultsEnvelope[T any] struct {
	Results []T `json:"results"`
}

type countEnvelope struct {
	Count int64 `json:"count"`
}

// distinctRow is one row of a distinct result. The server returns the
// grouped value under objectId rather than _id.
type distinctRow[T any] struct {
	Value T `json:"objectId"`
}

func classPath(className string) string {
	return "classes/" + url.PathEscape(className)
}

func objectPath(className, objectID string) string {
	return classPath(className) + "/" + url.PathEscape(objectID)
}

func aggregatePath(className string) string {
	return "aggregate/" + url.PathEscape(className)
}

func (q *Query) requestOptions(opts []CallOption) RequestOptions {
	ro := buildRequestOptions(opts)
	if q.useMasterKey {
		ro.UseMasterKey = true
	}
	return ro
}

// Find runs the query and decodes each result into T
func Find[T any](ctx context.Context, c *Client, q *Query, opts ...CallOption) ([]T, error) {
	params, err := q.Compile()
	if err != nil {
		return nil, err
	}

	var env resultsEnvelope[T]
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   classPath(q.className),
		params: params,
		opts:   q.requestOptions(opts),
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Results == nil {
		env.Results = []T{}
	}
	return env.Results, nil
}

// First runs the query with a limit of one. It returns nil when nothing matches.
func First[T any](ctx context.Context, c *Client, q *Query, opts ...CallOption) (*T, error) {
	results, err := Find[T](ctx, c, q.Clone().Limit(1), opts...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Get fetches a single object by id. Only the include and keys settings of q
// are sent; the object is addressed by its path.
func Get[T any](ctx context.Context, c *Client, q *Query, objectID string, opts ...CallOption) (*T, error) {
	if objectID == "" {
		return nil, localError(KindInvalidRequest, "object id is required")
	}

	var out T
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   objectPath(q.className, objectID),
		params: q.projection(),
		opts:   q.requestOptions(opts),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Count returns the number of objects matching the query. The query itself is
// not changed.
func Count(ctx context.Context, c *Client, q *Query, opts ...CallOption) (int64, error) {
	params, err := q.compileCount()
	if err != nil {
		return 0, err
	}

	var env countEnvelope
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   classPath(q.className),
		params: params,
		opts:   q.requestOptions(opts),
	}, &env)
	if err != nil {
		return 0, err
	}
	return env.Count, nil
}

// Distinct returns the distinct values of field among objects matching the
// query. It runs as an aggregation and always uses the master key.
func Distinct[T any](ctx context.Context, c *Client, q *Query, field string) ([]T, error) {
	params, err := compilePipeline(q.DistinctPipeline(field))
	if err != nil {
		return nil, err
	}

	var env resultsEnvelope[distinctRow[T]]
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   aggregatePath(q.className),
		params: params,
		opts:   RequestOptions{UseMasterKey: true},
	}, &env)
	if err != nil {
		return nil, err
	}

	values := make([]T, len(env.Results))
	for i, row := range env.Results {
		values[i] = row.Value
	}
	return values, nil
}

// Aggregate runs pipeline against the query's class and decodes each row into
// T. The pipeline is sent as is and the master key is always used.
func Aggregate[T any](ctx context.Context, c *Client, q *Query, pipeline []Value) ([]T, error) {
	params, err := compilePipeline(pipeline)
	if err != nil {
		return nil, err
	}

	var env resultsEnvelope[T]
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   aggregatePath(q.className),
		params: params,
		opts:   RequestOptions{UseMasterKey: true},
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Results == nil {
		env.Results = []T{}
	}
	return env.Results, nil
}

// FindObjects runs the query and returns generic objects
func (c *Client) FindObjects(ctx context.Context, q *Query, opts ...CallOption) ([]Object, error) {
	objects, err := Find[Object](ctx, c, q, opts...)
	if err != nil {
		return nil, err
	}
	for i := range objects {
		objects[i].ClassName = q.className
	}
	return objects, nil
}

// CountObjects is the method form of Count
func (c *Client) CountObjects(ctx context.Context, q *Query, opts ...CallOption) (int64, error) {
	return Count(ctx, c, q, opts...)
}
