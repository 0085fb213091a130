package parse

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/blang/semver"
)

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status string `json:"status"`
}

// OK reports whether the server said it is healthy
func (h HealthStatus) OK() bool {
	return strings.EqualFold(h.Status, "ok")
}

// Health checks the server is reachable and healthy
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "health",
	}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// ServerInfo describes the server build and its enabled features.
type ServerInfo struct {
	ParseServerVersion string           `json:"parseServerVersion"`
	Features           map[string]Value `json:"features"`
}

// Version parses the reported server version
func (s ServerInfo) Version() (semver.Version, error) {
	v, err := semver.ParseTolerant(s.ParseServerVersion)
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid server version %q: %w", s.ParseServerVersion, err)
	}
	return v, nil
}

// ServerInfo fetches the server info. It uses the master key.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "serverInfo",
		opts:   RequestOptions{UseMasterKey: true},
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// RequireServerVersion checks the server version against a semver range such
// as ">=5.0.0 <8.0.0".
func (c *Client) RequireServerVersion(ctx context.Context, constraint string) error {
	want, err := semver.ParseRange(constraint)
	if err != nil {
		e := localError(KindInvalidRequest, "invalid version range %q", constraint)
		e.Err = err
		return e
	}

	info, err := c.ServerInfo(ctx)
	if err != nil {
		return err
	}
	have, err := info.Version()
	if err != nil {
		return &Error{
			Kind:    KindResponseDecodeFailed,
			Origin:  OriginDecode,
			Message: err.Error(),
			Err:     err,
		}
	}
	if !want(have) {
		return localError(KindOther, "server version %s does not satisfy %s", have, constraint)
	}
	return nil
}
