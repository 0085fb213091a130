package parse

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/parse/users", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sean", body["username"])
		assert.Equal(t, "secret", body["password"])
		assert.Equal(t, "sean@example.com", body["email"])
		assert.Equal(t, "+1", body["phone"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"objectId":"u1","sessionToken":"r:new","createdAt":"2024-05-01T10:00:00.000Z"}`))
	})

	user, session, err := client.SignUp(context.Background(), SignUpRequest{
		Username: "sean",
		Password: "secret",
		Email:    "sean@example.com",
		Fields:   map[string]Value{"phone": String("+1")},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ObjectID)
	assert.Equal(t, "sean", user.Username)
	assert.Equal(t, "r:new", session.SessionToken())
	assert.False(t, client.IsAuthenticated())
}

func TestSignUpValidation(t *testing.T) {
	client, transport := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name string
		req  SignUpRequest
	}{
		{"missing username", SignUpRequest{Password: "p"}},
		{"missing password", SignUpRequest{Username: "u"}},
		{"bad email", SignUpRequest{Username: "u", Password: "p", Email: "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := client.SignUp(context.Background(), tt.req)
			require.Error(t, err)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, OriginLocal, perr.Origin)
		})
	}
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestSignUpUsernameTaken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":202,"error":"Account already exists for this username."}`))
	})

	_, _, err := client.SignUp(context.Background(), SignUpRequest{Username: "u", Password: "p"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogIn(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse/login", r.URL.Path)
		w.Write([]byte(`{"objectId":"u1","username":"sean","sessionToken":"r:abc","createdAt":"2024-05-01T10:00:00.000Z","updatedAt":"2024-05-01T10:00:00.000Z"}`))
	})

	user, session, err := client.LogIn(context.Background(), "sean", "secret")
	require.NoError(t, err)
	assert.Equal(t, "sean", user.Username)
	assert.Equal(t, "r:abc", session.SessionToken())
	assert.Empty(t, client.SessionToken())
}

func TestLogInInvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":101,"error":"Invalid username/password."}`))
	})

	_, session, err := client.LogIn(context.Background(), "sean", "wrong")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Nil(t, session)
}

func TestBecome(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/parse/users/me", r.URL.Path)
		assert.Equal(t, "r:target", r.Header.Get(HeaderSessionToken))
		w.Write([]byte(`{"objectId":"u2","username":"ana"}`))
	}, WithSessionToken("r:old"))

	user, session, err := client.Become(context.Background(), "r:target")
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "r:target", user.SessionToken)
	assert.Equal(t, "r:target", session.SessionToken())
	assert.Equal(t, "r:old", client.SessionToken())
}

func TestBecomeInvalidSession(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":209,"error":"Invalid session token"}`))
	})

	_, _, err := client.Become(context.Background(), "r:bad")
	assert.ErrorIs(t, err, ErrInvalidSessionToken)
}

func TestCurrentUserAndLogOut(t *testing.T) {
	t.Run("without session", func(t *testing.T) {
		client, transport := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

		_, err := client.CurrentUser(context.Background())
		assert.ErrorIs(t, err, ErrSessionTokenMissing)
		_, err = client.LogOut(context.Background())
		assert.ErrorIs(t, err, ErrSessionTokenMissing)
		assert.Equal(t, int32(0), transport.calls.Load())
	})

	t.Run("with session", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "r:abc", r.Header.Get(HeaderSessionToken))
			switch r.URL.Path {
			case "/parse/users/me":
				w.Write([]byte(`{"objectId":"u1","username":"sean"}`))
			case "/parse/logout":
				assert.Equal(t, http.MethodPost, r.Method)
				w.Write([]byte(`{}`))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}, WithSessionToken("r:abc"))

		user, err := client.CurrentUser(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "sean", user.Username)

		loggedOut, err := client.LogOut(context.Background())
		require.NoError(t, err)
		assert.False(t, loggedOut.IsAuthenticated())
		assert.True(t, client.IsAuthenticated())
	})
}

func TestRequestPasswordReset(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse/requestPasswordReset", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "sean@example.com"}, body)
		w.Write([]byte(`{}`))
	})

	require.NoError(t, client.RequestPasswordReset(context.Background(), "sean@example.com"))
	assert.Error(t, client.RequestPasswordReset(context.Background(), ""))
}
