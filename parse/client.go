package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// snippetLength bounds the body excerpt kept when a failure body is not JSON.
const snippetLength = 100

// Client represents a Parse Server API client. A Client never changes after
// construction and is safe for concurrent use.
type Client struct {
	baseURL    string
	mountPath  string
	auth       AuthContext
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// NewClient creates a new Parse client. No network call is made; use Health
// to check connectivity.
func NewClient(serverURL, appID string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(serverURL) == "" {
		return nil, configError("server URL is required")
	}
	if appID == "" {
		return nil, configError("application id is required")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	mount := strings.Trim(options.mountPath, "/")
	baseURL, err := normalizeServerURL(serverURL, mount)
	if err != nil {
		return nil, configError("invalid server URL %q: %v", serverURL, err)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.timeout,
		}
	}

	return &Client{
		baseURL:   baseURL,
		mountPath: mount,
		auth: AuthContext{
			ApplicationID:  appID,
			MasterKey:      options.masterKey,
			JavaScriptKey:  options.javaScriptKey,
			RESTAPIKey:     options.restAPIKey,
			SessionToken:   options.sessionToken,
			InstallationID: options.installationID,
		},
		httpClient: httpClient,
		userAgent:  options.userAgent,
		logger:     logger,
	}, nil
}

func configError(format string, args ...any) *Error {
	e := localError(KindInvalidRequest, format, args...)
	e.Err = ErrInvalidConfig
	return e
}

// normalizeServerURL defaults the scheme to http, trims a trailing slash and
// strips a trailing mount path segment.
func normalizeServerURL(raw, mount string) (string, error) {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	s = strings.TrimRight(s, "/")
	if mount != "" {
		s = strings.TrimSuffix(s, "/"+mount)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	return s, nil
}

// BaseURL returns the normalized server URL, without the mount path
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Auth returns a copy of the client's credentials
func (c *Client) Auth() AuthContext {
	return c.auth
}

// SessionToken returns the stored session token, empty when there is none
func (c *Client) SessionToken() string {
	return c.auth.SessionToken
}

// IsAuthenticated reports whether the client holds a session token
func (c *Client) IsAuthenticated() bool {
	return c.auth.SessionToken != ""
}

// HasMasterKey reports whether a master key is configured
func (c *Client) HasMasterKey() bool {
	return c.auth.MasterKey != ""
}

// WithSession returns a copy of the client bound to the given session token.
// An empty token returns a copy with no session.
func (c *Client) WithSession(token string) *Client {
	clone := *c
	clone.auth.SessionToken = token
	return &clone
}

// request describes a single call to the API.
type request struct {
	method string
	path   string
	params Params
	// body is encoded as JSON for POST, PUT and PATCH
	body any
	// raw is sent as is, with contentType
	raw         io.Reader
	contentType string
	opts        RequestOptions
}

func (c *Client) endpointURL(path string, params Params) string {
	u := c.baseURL + "/"
	if c.mountPath != "" {
		u += c.mountPath + "/"
	}
	u += strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func hasJSONBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// do sends the request and decodes a successful response into out, which may
// be nil. Failures are always returned as *Error.
func (c *Client) do(ctx context.Context, r request, out any) error {
	headers, cred, err := ResolveAuth(c.auth, r.opts)
	if err != nil {
		return err
	}

	var body io.Reader
	switch {
	case r.raw != nil:
		body = r.raw
		if r.contentType != "" {
			headers.Set("Content-Type", r.contentType)
		}
	case hasJSONBody(r.method):
		payload := r.body
		if payload == nil {
			payload = struct{}{}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return &Error{
				Kind:    KindInvalidRequest,
				Origin:  OriginLocal,
				Message: "failed to encode request body",
				Err:     err,
			}
		}
		body = bytes.NewReader(data)
		headers.Set("Content-Type", "application/json")
	}

	endpoint := c.endpointURL(r.path, r.params)
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return &Error{
			Kind:    KindInvalidRequest,
			Origin:  OriginLocal,
			Message: "failed to create request",
			Err:     err,
		}
	}
	req.Header = headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", r.method).
			Str("path", r.path).
			Msg("Parse request failed")
		return &Error{
			Kind:    KindConnectionFailed,
			Origin:  OriginTransport,
			Message: err.Error(),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			Kind:    KindConnectionFailed,
			Origin:  OriginTransport,
			Status:  resp.StatusCode,
			Message: "failed to read response body",
			Err:     err,
		}
	}

	c.logger.Debug().
		Str("method", r.method).
		Str("url", endpoint).
		Str("credential", cred.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Parse request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{
			Kind:    KindResponseDecodeFailed,
			Origin:  OriginDecode,
			Status:  resp.StatusCode,
			Message: err.Error(),
			Body:    string(data),
			Err:     err,
		}
	}
	return nil
}

// responseError maps a non-2xx response. Bodies that are not a failure
// envelope carry no code; the message holds a snippet of the body.
func responseError(status int, data []byte) *Error {
	var eb ErrorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		eb = ErrorBody{
			Message: fmt.Sprintf("HTTP %d with non-JSON body: %s", status, snippet(string(data))),
		}
	}
	e := MapError(status, eb)
	e.Body = string(data)
	return e
}

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLength {
		return s
	}
	return string(runes[:snippetLength])
}
