package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/groveshop/storefront-gateway/internal/domain/account"
)

// customerPayload is the wire form of a customer profile.
type customerPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p customerPayload) toDomain() *account.Customer {
	return &account.Customer{
		ID:    p.ID,
		Email: p.Email,
		Name:  p.Name,
	}
}

// authEnvelope is the backend's response to login and signup.
type authEnvelope struct {
	Token    string          `json:"token"`
	Customer customerPayload `json:"customer"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, *account.Customer, error) {
	payload := map[string]string{"email": email, "password": password}

	status, _, body, err := c.do(ctx, http.MethodPost, "/auth/login", "", payload)
	if err != nil {
		return "", nil, err
	}

	switch {
	case is2xx(status):
		var env authEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return "", nil, errors.Wrap(err, "decode login response")
		}
		return env.Token, env.Customer.toDomain(), nil
	case status == http.StatusUnauthorized:
		return "", nil, account.ErrInvalidCredentials
	default:
		return "", nil, &UpstreamError{StatusCode: status, Message: parseErrorBody(body).userMessage()}
	}
}

// Signup creates a new account. The backend signs the customer in
// immediately, so the response carries a token as well.
func (c *Client) Signup(ctx context.Context, name, email, password string) (string, *account.Customer, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}

	status, _, body, err := c.do(ctx, http.MethodPost, "/auth/signup", "", payload)
	if err != nil {
		return "", nil, err
	}

	switch {
	case is2xx(status):
		var env authEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return "", nil, errors.Wrap(err, "decode signup response")
		}
		return env.Token, env.Customer.toDomain(), nil
	case status == http.StatusConflict:
		return "", nil, account.ErrEmailTaken
	default:
		return "", nil, &UpstreamError{StatusCode: status, Message: parseErrorBody(body).userMessage()}
	}
}

// Logout revokes the token upstream. A 401 means the token is already dead,
// which is the state logout wants, so it is not an error.
func (c *Client) Logout(ctx context.Context, token string) error {
	status, _, body, err := c.do(ctx, http.MethodPost, "/auth/logout", token, nil)
	if err != nil {
		return err
	}
	if is2xx(status) || status == http.StatusUnauthorized {
		return nil
	}
	return &UpstreamError{StatusCode: status, Message: parseErrorBody(body).userMessage()}
}

// Me fetches the authenticated customer's profile.
func (c *Client) Me(ctx context.Context, token string) (*account.Customer, error) {
	status, _, body, err := c.do(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case is2xx(status):
		var env struct {
			Customer customerPayload `json:"customer"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, errors.Wrap(err, "decode profile")
		}
		return env.Customer.toDomain(), nil
	case status == http.StatusUnauthorized:
		return nil, account.ErrUnauthenticated
	default:
		return nil, &UpstreamError{StatusCode: status, Message: parseErrorBody(body).userMessage()}
	}
}
