package account

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// Sentinel errors surfaced by account operations.
var (
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signup hits an existing account.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrUnauthenticated is returned when no valid session credential exists.
	ErrUnauthenticated = errors.New("not authenticated")
)

// Customer is the authenticated user's profile as reported by the backend.
type Customer struct {
	ID    string
	Email string
	Name  string
}

// LoginForm carries login credentials. Validation runs locally before any
// network call, mirroring the storefront's form schemas.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignupForm carries new-account details.
type SignupForm struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// FormError reports which form fields failed validation. It is a terminal,
// local error: nothing was sent to the backend.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	var b strings.Builder
	b.WriteString("invalid form:")
	for field, rule := range e.Fields {
		b.WriteByte(' ')
		b.WriteString(field)
		b.WriteByte('(')
		b.WriteString(rule)
		b.WriteByte(')')
	}
	return b.String()
}

// Gateway performs auth operations against the external backend. The
// endpoints themselves are opaque; the storefront only consumes the issued
// bearer token and the 401 signal.
type Gateway interface {
	Login(ctx context.Context, email, password string) (token string, customer *Customer, err error)
	Signup(ctx context.Context, name, email, password string) (token string, customer *Customer, err error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*Customer, error)
}

// Service validates auth forms and drives the backend auth flows.
type Service struct {
	gateway  Gateway
	validate *validator.Validate
}

// NewService creates an account Service backed by the given gateway.
func NewService(gateway Gateway) *Service {
	return &Service{
		gateway:  gateway,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Login validates the form and exchanges credentials for a bearer token.
func (s *Service) Login(ctx context.Context, form LoginForm) (string, *Customer, error) {
	if err := s.check(form); err != nil {
		return "", nil, err
	}
	return s.gateway.Login(ctx, form.Email, form.Password)
}

// Signup validates the form and creates a new account. The backend signs the
// new customer in immediately, so a token is returned as well.
func (s *Service) Signup(ctx context.Context, form SignupForm) (string, *Customer, error) {
	if err := s.check(form); err != nil {
		return "", nil, err
	}
	return s.gateway.Signup(ctx, form.Name, form.Email, form.Password)
}

// Logout revokes the token upstream. A missing token is a no-op; upstream
// failures are returned but the caller should still drop the local session.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.gateway.Logout(ctx, token)
}

// Me fetches the authenticated customer's profile.
func (s *Service) Me(ctx context.Context, token string) (*Customer, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return s.gateway.Me(ctx, token)
}

// check runs struct validation and converts failures into a FormError.
func (s *Service) check(form any) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate form")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return &FormError{Fields: fields}
}
