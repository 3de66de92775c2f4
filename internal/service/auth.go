package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/authportal/authportal-go/internal/authapi"
	"github.com/authportal/authportal-go/internal/cache"
	"github.com/authportal/authportal-go/internal/crypto"
	"github.com/authportal/authportal-go/internal/form"
	"github.com/authportal/authportal-go/internal/model"
	"github.com/authportal/authportal-go/internal/notify"
	"github.com/authportal/authportal-go/internal/repository"
	"github.com/authportal/authportal-go/internal/validation"
)

var (
	LoginMessages = form.Messages{
		Success: "Login successful.",
		Failure: "Login failed. Please try again.",
	}
	RegisterMessages = form.Messages{
		Success: "User registration successful.",
		Failure: "User registration failed.",
	}
)

var ErrUntrustedToken = errors.New("session token failed verification")

type (
	LoginOutcome    = form.Outcome[model.Session]
	RegisterOutcome = form.Outcome[model.AuthResult]
)

// clientForms are the form pipelines of one client.
type clientForms struct {
	login    *form.Pipeline[model.LoginRequest, model.Session]
	register *form.Pipeline[model.RegisterInput, model.AuthResult]
}

// Options tune an AuthService. Zero values select the defaults.
type Options struct {
	SessionTTL  time.Duration
	FormTTL     time.Duration
	TokenSecret string
	Logger      *slog.Logger
}

// AuthService drives the login and registration forms of every client and
// owns the sessions created by successful logins.
type AuthService struct {
	api         *authapi.API
	validator   *validation.Validator
	sessions    repository.SessionRepository
	sink        notify.Sink
	forms       *cache.Memory[string, *clientForms]
	sessionTTL  time.Duration
	formTTL     time.Duration
	tokenSecret string
	log         *slog.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(api *authapi.API, sessions repository.SessionRepository, sink notify.Sink, opts Options) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.FormTTL <= 0 {
		opts.FormTTL = 30 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if sink == nil {
		sink = notify.Direct{Notifier: notify.Discard}
	}
	return &AuthService{
		api:         api,
		validator:   validation.Default(),
		sessions:    sessions,
		sink:        sink,
		forms:       cache.NewMemory[string, *clientForms](),
		sessionTTL:  opts.SessionTTL,
		formTTL:     opts.FormTTL,
		tokenSecret: opts.TokenSecret,
		log:         opts.Logger,
		now:         time.Now,
	}
}

// formsFor returns the client's pipelines, creating them on first use.
// Every access extends their lifetime by the form TTL.
func (s *AuthService) formsFor(clientID string) *clientForms {
	return s.forms.GetOrSet(clientID, func() *clientForms {
		return s.newClientForms(clientID)
	}, s.formTTL)
}

func (s *AuthService) newClientForms(clientID string) *clientForms {
	log := s.log.With("client", clientID)
	notifier := s.sink.For(clientID)

	login := form.New[model.LoginRequest, model.Session](
		"login",
		func(in model.LoginRequest) validation.FieldErrors { return s.validator.Struct(in) },
		func(ctx context.Context, in model.LoginRequest) (model.Session, error) {
			res, err := s.api.Login(ctx, in)
			if err != nil {
				return model.Session{}, err
			}
			return model.Session{Result: res}, nil
		},
		notifier,
		LoginMessages,
		form.WithLogger[model.LoginRequest, model.Session](log),
		form.WithOnSuccess[model.LoginRequest, model.Session](s.storeSession),
	)

	register := form.New[model.RegisterInput, model.AuthResult](
		"register",
		func(in model.RegisterInput) validation.FieldErrors { return s.validator.Struct(in) },
		func(ctx context.Context, in model.RegisterInput) (model.AuthResult, error) {
			return s.api.Register(ctx, in.Payload())
		},
		notifier,
		RegisterMessages,
		form.WithLogger[model.RegisterInput, model.AuthResult](log),
	)

	return &clientForms{login: login, register: register}
}

// storeSession turns a login result into a fresh session and saves it.
func (s *AuthService) storeSession(ctx context.Context, in model.LoginRequest, sess model.Session) (model.Session, error) {
	res := sess.Result
	now := s.now()

	sess = model.Session{
		ID:        uuid.NewString(),
		Token:     res.Token,
		Email:     res.Email,
		Name:      res.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
		Result:    res,
	}

	if res.Token != "" {
		claims, err := crypto.ParseSessionToken(res.Token, s.tokenSecret)
		switch {
		case errors.Is(err, crypto.ErrTokenExpired):
			return model.Session{}, err
		case err == nil:
			if exp := claims.Expiry(); !exp.IsZero() {
				sess.ExpiresAt = exp
			}
			if sess.Email == "" {
				sess.Email = claims.Email
			}
			if sess.Name == "" {
				sess.Name = claims.Name
			}
		case s.tokenSecret != "":
			return model.Session{}, ErrUntrustedToken
		}
	}
	if sess.Email == "" {
		sess.Email = in.Email
	}
	if !sess.ExpiresAt.After(now) {
		return model.Session{}, crypto.ErrTokenExpired
	}

	if err := s.sessions.Save(ctx, sess, sess.ExpiresAt.Sub(now)); err != nil {
		return model.Session{}, fmt.Errorf("storing session: %w", err)
	}
	return sess, nil
}

// Login submits the client's login form.
func (s *AuthService) Login(ctx context.Context, clientID string, in model.LoginRequest) LoginOutcome {
	return s.formsFor(clientID).login.Submit(ctx, in)
}

// Register submits the client's registration form.
func (s *AuthService) Register(ctx context.Context, clientID string, in model.RegisterInput) RegisterOutcome {
	return s.formsFor(clientID).register.Submit(ctx, in)
}

// ValidateLogin validates in against the client's login form without
// submitting it. A non-empty field restricts the result to that field.
func (s *AuthService) ValidateLogin(clientID string, in model.LoginRequest, field string) validation.FieldErrors {
	return validateWith(s.formsFor(clientID).login, in, field)
}

// ValidateRegister validates in against the client's registration form
// without submitting it. A non-empty field restricts the result to that field.
func (s *AuthService) ValidateRegister(clientID string, in model.RegisterInput, field string) validation.FieldErrors {
	return validateWith(s.formsFor(clientID).register, in, field)
}

func validateWith[T, R any](p *form.Pipeline[T, R], in T, field string) validation.FieldErrors {
	if field == "" {
		if errs := p.Validate(in); errs != nil {
			return errs
		}
		return validation.FieldErrors{}
	}
	errs := validation.FieldErrors{}
	if msgs := p.ValidateField(in, field); len(msgs) > 0 {
		errs[field] = msgs
	}
	return errs
}

// Session returns the live session with the given ID.
func (s *AuthService) Session(ctx context.Context, id string) (model.Session, error) {
	if id == "" {
		return model.Session{}, repository.ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		_ = s.sessions.Delete(ctx, id)
		return model.Session{}, repository.ErrSessionNotFound
	}
	return sess, nil
}

// Logout invalidates the session with the given ID.
func (s *AuthService) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.sessions.Delete(ctx, id)
}

// Notifications drains the notifications queued for the client.
func (s *AuthService) Notifications(clientID string) []notify.Notification {
	return s.sink.Drain(clientID)
}

// StartJanitor drops the pipelines of idle clients until ctx is done.
func (s *AuthService) StartJanitor(ctx context.Context, interval time.Duration) {
	s.forms.StartJanitor(ctx, interval)
}
