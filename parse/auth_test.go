package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var primaryHeaders = []string{HeaderSessionToken, HeaderMasterKey, HeaderJavaScriptKey, HeaderRESTAPIKey}

func TestResolveAuth(t *testing.T) {
	full := AuthContext{
		ApplicationID: "app",
		MasterKey:     "master",
		JavaScriptKey: "js",
		RESTAPIKey:    "rest",
		SessionToken:  "r:stored",
	}

	tests := []struct {
		name       string
		ctx        AuthContext
		opts       RequestOptions
		wantHeader string
		wantValue  string
		wantCred   Credential
	}{
		{
			name:       "override wins over master key",
			ctx:        full,
			opts:       RequestOptions{SessionTokenOverride: "r:override", UseMasterKey: true},
			wantHeader: HeaderSessionToken,
			wantValue:  "r:override",
			wantCred:   CredentialSessionOverride,
		},
		{
			name:       "master key when requested",
			ctx:        full,
			opts:       RequestOptions{UseMasterKey: true},
			wantHeader: HeaderMasterKey,
			wantValue:  "master",
			wantCred:   CredentialMasterKey,
		},
		{
			name:       "stored session",
			ctx:        full,
			wantHeader: HeaderSessionToken,
			wantValue:  "r:stored",
			wantCred:   CredentialSessionToken,
		},
		{
			name:       "master key not sent unless requested",
			ctx:        AuthContext{ApplicationID: "app", MasterKey: "master", JavaScriptKey: "js"},
			wantHeader: HeaderJavaScriptKey,
			wantValue:  "js",
			wantCred:   CredentialJavaScriptKey,
		},
		{
			name:       "rest key last",
			ctx:        AuthContext{ApplicationID: "app", RESTAPIKey: "rest"},
			wantHeader: HeaderRESTAPIKey,
			wantValue:  "rest",
			wantCred:   CredentialRESTAPIKey,
		},
		{
			name:     "application id only",
			ctx:      AuthContext{ApplicationID: "app"},
			wantCred: CredentialNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, cred, err := ResolveAuth(tt.ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCred, cred)
			assert.Equal(t, "app", h.Get(HeaderApplicationID))

			attached := 0
			for _, name := range primaryHeaders {
				if h.Get(name) != "" {
					attached++
				}
			}
			if tt.wantHeader == "" {
				assert.Zero(t, attached)
				return
			}
			assert.Equal(t, 1, attached)
			assert.Equal(t, tt.wantValue, h.Get(tt.wantHeader))
		})
	}
}

func TestResolveAuthMasterKeyRequired(t *testing.T) {
	ac := AuthContext{ApplicationID: "app", SessionToken: "r:stored"}

	h, _, err := ResolveAuth(ac, RequestOptions{UseMasterKey: true})
	require.Error(t, err)
	assert.Nil(t, h)
	assert.True(t, errors.Is(err, ErrMasterKeyRequired))

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, OriginLocal, perr.Origin)
}

func TestResolveAuthInstallationID(t *testing.T) {
	h, cred, err := ResolveAuth(AuthContext{ApplicationID: "app", InstallationID: "inst"}, RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, CredentialNone, cred)
	assert.Equal(t, "inst", h.Get(HeaderInstallationID))
}

func TestCallOptions(t *testing.T) {
	ro := buildRequestOptions([]CallOption{UseMasterKey(), AsSession("r:abc")})
	assert.True(t, ro.UseMasterKey)
	assert.Equal(t, "r:abc", ro.SessionTokenOverride)
}
