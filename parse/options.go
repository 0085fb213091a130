package parse

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMountPath = "parse"
	defaultUserAgent = "parsekit"
)

// clientOptions holds configuration for a Client
type clientOptions struct {
	masterKey      string
	javaScriptKey  string
	restAPIKey     string
	sessionToken   string
	installationID string
	httpClient     *http.Client
	timeout        time.Duration
	mountPath      string
	userAgent      string
}

// Option configures a Client
type Option func(*clientOptions)

// WithMasterKey sets the master key. It is only sent for calls that ask for it.
func WithMasterKey(key string) Option {
	return func(o *clientOptions) {
		o.masterKey = key
	}
}

// WithJavaScriptKey sets the JavaScript key
func WithJavaScriptKey(key string) Option {
	return func(o *clientOptions) {
		o.javaScriptKey = key
	}
}

// WithRESTAPIKey sets the REST API key
func WithRESTAPIKey(key string) Option {
	return func(o *clientOptions) {
		o.restAPIKey = key
	}
}

// WithSessionToken starts the client with an existing session
func WithSessionToken(token string) Option {
	return func(o *clientOptions) {
		o.sessionToken = token
	}
}

// WithInstallationID sets the installation id sent with every request
func WithInstallationID(id string) Option {
	return func(o *clientOptions) {
		o.installationID = id
	}
}

// WithHTTPClient sets the HTTP client used for requests.
// WithTimeout is ignored when a client is supplied.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithMountPath sets the path the API is mounted under (default "parse")
func WithMountPath(path string) Option {
	return func(o *clientOptions) {
		o.mountPath = path
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// defaultOptions returns default client options
func defaultOptions() *clientOptions {
	return &clientOptions{
		timeout:   defaultTimeout,
		mountPath: defaultMountPath,
		userAgent: defaultUserAgent,
	}
}

// NewInstallationID returns a fresh installation id
func NewInstallationID() string {
	return uuid.NewString()
}
