package parse

import (
	"net/http"
)

// Protocol header names.
const (
	HeaderApplicationID  = "X-Parse-Application-Id"
	HeaderSessionToken   = "X-Parse-Session-Token"
	HeaderMasterKey      = "X-Parse-Master-Key"
	HeaderJavaScriptKey  = "X-Parse-Javascript-Key"
	HeaderRESTAPIKey     = "X-Parse-REST-API-Key"
	HeaderInstallationID = "X-Parse-Installation-Id"
)

// AuthContext holds the credentials a Client was configured with.
type AuthContext struct {
	ApplicationID  string
	MasterKey      string
	JavaScriptKey  string
	RESTAPIKey     string
	SessionToken   string
	InstallationID string
}

// RequestOptions adjusts the credential used for a single call.
type RequestOptions struct {
	// SessionTokenOverride runs the call as this session, ahead of everything else
	SessionTokenOverride string
	// UseMasterKey requires the master key for this call
	UseMasterKey bool
}

// Credential names the primary credential attached to a request.
type Credential int

const (
	CredentialNone Credential = iota
	CredentialSessionOverride
	CredentialMasterKey
	CredentialSessionToken
	CredentialJavaScriptKey
	CredentialRESTAPIKey
)

// String returns the string representation of a Credential
func (c Credential) String() string {
	switch c {
	case CredentialSessionOverride:
		return "session-override"
	case CredentialMasterKey:
		return "master-key"
	case CredentialSessionToken:
		return "session-token"
	case CredentialJavaScriptKey:
		return "javascript-key"
	case CredentialRESTAPIKey:
		return "rest-api-key"
	default:
		return "application-id"
	}
}

// ResolveAuth decides the headers for one request. Precedence is:
// session override, master key (when requested), stored session token,
// JavaScript key, REST API key, then the application id alone.
//
// The application id is always attached and at most one primary credential is
// added. Requesting the master key without one configured fails with
// KindMasterKeyRequired.
func ResolveAuth(ac AuthContext, opts RequestOptions) (http.Header, Credential, error) {
	h := make(http.Header)
	h.Set(HeaderApplicationID, ac.ApplicationID)
	if ac.InstallationID != "" {
		h.Set(HeaderInstallationID, ac.InstallationID)
	}

	switch {
	case opts.SessionTokenOverride != "":
		h.Set(HeaderSessionToken, opts.SessionTokenOverride)
		return h, CredentialSessionOverride, nil
	case opts.UseMasterKey:
		if ac.MasterKey == "" {
			return nil, CredentialNone, localError(KindMasterKeyRequired,
				"operation requires the master key but none is configured")
		}
		h.Set(HeaderMasterKey, ac.MasterKey)
		return h, CredentialMasterKey, nil
	case ac.SessionToken != "":
		h.Set(HeaderSessionToken, ac.SessionToken)
		return h, CredentialSessionToken, nil
	case ac.JavaScriptKey != "":
		h.Set(HeaderJavaScriptKey, ac.JavaScriptKey)
		return h, CredentialJavaScriptKey, nil
	case ac.RESTAPIKey != "":
		h.Set(HeaderRESTAPIKey, ac.RESTAPIKey)
		return h, CredentialRESTAPIKey, nil
	}
	return h, CredentialNone, nil
}

// CallOption adjusts the RequestOptions of a single call.
type CallOption func(*RequestOptions)

// UseMasterKey runs the call with the master key
func UseMasterKey() CallOption {
	return func(o *RequestOptions) {
		o.UseMasterKey = true
	}
}

// AsSession runs the call as the given session token
func AsSession(token string) CallOption {
	return func(o *RequestOptions) {
		o.SessionTokenOverride = token
	}
}

func buildRequestOptions(opts []CallOption) RequestOptions {
	var ro RequestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	return ro
}
