package parse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// RunFunction calls the cloud function name with params and decodes its
// result into out. out may be nil when the result is not needed.
func (c *Client) RunFunction(ctx context.Context, name string, params map[string]Value, out any, opts ...CallOption) error {
	if name == "" {
		return localError(KindInvalidRequest, "function name is required")
	}

	var env struct {
		Result json.RawMessage `json:"result"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "functions/" + url.PathEscape(name),
		body:   ObjectValue(params),
		opts:   buildRequestOptions(opts),
	}, &env)
	if err != nil {
		return err
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &Error{
			Kind:    KindResponseDecodeFailed,
			Origin:  OriginDecode,
			Message: err.Error(),
			Body:    string(env.Result),
			Err:     err,
		}
	}
	return nil
}

// GetConfig returns the server's config parameters. It uses the master key.
func (c *Client) GetConfig(ctx context.Context) (map[string]Value, error) {
	var env struct {
		Params map[string]Value `json:"params"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "config",
		opts:   RequestOptions{UseMasterKey: true},
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Params == nil {
		env.Params = map[string]Value{}
	}
	return env.Params, nil
}

// UpdateConfig sets config parameters. It uses the master key.
func (c *Client) UpdateConfig(ctx context.Context, params map[string]Value) error {
	if len(params) == 0 {
		return localError(KindInvalidRequest, "no config parameters to update")
	}

	var ignored json.RawMessage
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "config",
		body:   ObjectValue(map[string]Value{"params": ObjectValue(params)}),
		opts:   RequestOptions{UseMasterKey: true},
	}, &ignored)
}
