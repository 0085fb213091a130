package parse

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// UploadFile stores data under name and returns the saved file. The client's
// session is used when there is one, otherwise the master key if configured.
func (c *Client) UploadFile(ctx context.Context, name, contentType string, data io.Reader) (*File, error) {
	if name == "" {
		return nil, localError(KindInvalidRequest, "file name is required")
	}
	if data == nil {
		return nil, localError(KindInvalidRequest, "file data is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var opts RequestOptions
	if !c.IsAuthenticated() && c.HasMasterKey() {
		opts.UseMasterKey = true
	}

	var file File
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "files/" + url.PathEscape(name),
		raw:         data,
		contentType: contentType,
		opts:        opts,
	}, &file)
	if err != nil {
		return nil, err
	}
	return &file, nil
}
