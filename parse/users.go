package parse

import (
	"context"
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// User is a user record as returned by login and users/me.
type User struct {
	ObjectID      string    `json:"objectId"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	EmailVerified *bool     `json:"emailVerified,omitempty"`
	SessionToken  string    `json:"sessionToken,omitempty"`
	CreatedAt     Timestamp `json:"createdAt"`
	UpdatedAt     Timestamp `json:"updatedAt"`
}

// SignUpRequest describes a new user. Fields holds any extra custom fields.
type SignUpRequest struct {
	Username string
	Password string
	Email    string
	Fields   map[string]Value
}

// Validate checks the request before it is sent
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Email, is.EmailFormat),
	)
}

func (r SignUpRequest) body() Value {
	m := make(map[string]Value, len(r.Fields)+3)
	for k, v := range r.Fields {
		m[k] = v
	}
	m["username"] = String(r.Username)
	m["password"] = String(r.Password)
	if r.Email != "" {
		m["email"] = String(r.Email)
	}
	return ObjectValue(m)
}

type signUpResponse struct {
	ObjectID     string    `json:"objectId"`
	SessionToken string    `json:"sessionToken"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// SignUp creates a user and returns it along with a client bound to the new
// session. The receiver is not changed.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*User, *Client, error) {
	if err := req.Validate(); err != nil {
		e := localError(KindInvalidRequest, "invalid sign up request: %v", err)
		e.Err = err
		return nil, nil, e
	}

	var resp signUpResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "users",
		body:   req.body(),
	}, &resp)
	if err != nil {
		return nil, nil, err
	}

	user := &User{
		ObjectID:     resp.ObjectID,
		Username:     req.Username,
		Email:        req.Email,
		SessionToken: resp.SessionToken,
		CreatedAt:    resp.CreatedAt,
		UpdatedAt:    resp.CreatedAt,
	}
	c.logger.Debug().Str("user", user.ObjectID).Msg("Signed up")
	return user, c.WithSession(resp.SessionToken), nil
}

// LogIn authenticates a user and returns it along with a client bound to the
// session. Invalid credentials are reported as KindObjectNotFound.
func (c *Client) LogIn(ctx context.Context, username, password string) (*User, *Client, error) {
	if username == "" || password == "" {
		return nil, nil, localError(KindInvalidRequest, "username and password are required")
	}

	var user User
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "login",
		body: ObjectValue(map[string]Value{
			"username": String(username),
			"password": String(password),
		}),
	}, &user)
	if err != nil {
		return nil, nil, err
	}
	if user.SessionToken == "" {
		return nil, nil, &Error{
			Kind:    KindResponseDecodeFailed,
			Origin:  OriginDecode,
			Message: "login response has no session token",
		}
	}

	c.logger.Debug().Str("user", user.ObjectID).Msg("Logged in")
	return &user, c.WithSession(user.SessionToken), nil
}

// Become validates sessionToken by fetching its user and returns the user
// along with a client bound to that session.
func (c *Client) Become(ctx context.Context, sessionToken string) (*User, *Client, error) {
	if sessionToken == "" {
		return nil, nil, localError(KindSessionTokenMissing, "session token is required")
	}

	var user User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "users/me",
		opts:   RequestOptions{SessionTokenOverride: sessionToken},
	}, &user)
	if err != nil {
		return nil, nil, err
	}
	if user.SessionToken == "" {
		user.SessionToken = sessionToken
	}
	return &user, c.WithSession(sessionToken), nil
}

// CurrentUser returns the user of the client's session
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if !c.IsAuthenticated() {
		return nil, localError(KindSessionTokenMissing, "client has no session")
	}

	var user User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "users/me",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LogOut ends the client's session on the server and returns a client with no
// session.
func (c *Client) LogOut(ctx context.Context) (*Client, error) {
	if !c.IsAuthenticated() {
		return nil, localError(KindSessionTokenMissing, "client has no session")
	}

	var ignored json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "logout",
	}, &ignored)
	if err != nil {
		return nil, err
	}
	return c.WithSession(""), nil
}

// RequestPasswordReset asks the server to email a password reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		e := localError(KindInvalidRequest, "invalid email: %v", err)
		e.Err = err
		return e
	}

	var ignored json.RawMessage
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "requestPasswordReset",
		body:   ObjectValue(map[string]Value{"email": String(email)}),
	}, &ignored)
}
