// Package session owns the access token and the authenticated-user record.
// It is the only component allowed to mutate either; everything else reads
// through Snapshot.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mkraev/docquery/internal/errs"
	"github.com/mkraev/docquery/internal/model"
	"github.com/mkraev/docquery/internal/tokenstore"
)

// API is the subset of the transport client the session depends on.
type API interface {
	Login(ctx context.Context, email, password string) (model.Tokens, error)
	Register(ctx context.Context, reg model.Registration) (model.User, error)
	CurrentUser(ctx context.Context) (model.User, error)
	ProbeUser(ctx context.Context) (model.User, error)
}

// State is the authentication lifecycle position.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Snapshot is a read-only copy of the session state.
// Invariant: Authenticated implies both Token and User are populated.
type Snapshot struct {
	State         State
	Token         string
	User          model.User
	Authenticated bool
	Loading       bool
	Err           string
}

// Session is the auth state machine: Anonymous -> Authenticating ->
// Authenticated, back to Anonymous on logout or forced logout.
type Session struct {
	api      API
	store    tokenstore.Store
	log      *zap.Logger
	validate *validator.Validate

	mu    sync.Mutex
	state State
	token string
	user  model.User
	err   string
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the structured logger (zap.NewNop by default).
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New constructs an anonymous session.
func New(api API, store tokenstore.Store, opts ...Option) *Session {
	s := &Session{
		api:      api,
		store:    store,
		log:      zap.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:         s.state,
		Token:         s.token,
		User:          s.user,
		Authenticated: s.state == Authenticated,
		Loading:       s.state == Authenticating,
		Err:           s.err,
	}
}

// Login exchanges credentials for a token, persists it, then fetches the
// profile. The session ends up either fully authenticated or fully anonymous:
// a failed profile fetch after a successful token exchange discards the token
// and counts as a login failure.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", errs.ErrValidation)
	}

	s.begin()

	toks, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.fail(err)
		return err
	}
	if err := s.store.Save(toks.Access); err != nil {
		err = fmt.Errorf("persist token: %w", err)
		s.fail(err)
		return err
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		// no half-authenticated state: roll the token back
		if cerr := s.store.Clear(); cerr != nil {
			s.log.Warn("discard token after failed profile fetch", zap.Error(cerr))
		}
		s.fail(err)
		return err
	}

	s.commit(toks.Access, user)
	s.log.Info("login", zap.String("email", email), zap.Int64("user_id", user.ID))
	return nil
}

// Register creates an account after local field validation. It never
// authenticates; the caller logs in separately.
func (s *Session) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	if err := s.validate.Struct(reg); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return s.api.Register(ctx, reg)
}

// Logout resets to anonymous. Local only, no network call.
func (s *Session) Logout() {
	if err := s.store.Clear(); err != nil {
		s.log.Warn("clear token on logout", zap.Error(err))
	}
	s.reset()
	s.log.Info("logout")
}

// HandleAuthReject is the forced-logout entry point, wired as the transport
// client's 401 hook. The transport has already cleared the stored token.
// Idempotent: concurrent 401s flip the state once.
func (s *Session) HandleAuthReject() {
	s.mu.Lock()
	wasAuthenticated := s.state != Anonymous
	s.state = Anonymous
	s.token = ""
	s.user = model.User{}
	s.err = "session expired, sign in again"
	s.mu.Unlock()

	if wasAuthenticated {
		s.log.Info("forced logout")
	}
}

// Restore recovers a persisted token at startup. An expired or rejected token
// is discarded and the session stays anonymous; that is not an error.
func (s *Session) Restore(ctx context.Context) error {
	tok, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if tok == "" {
		return nil
	}
	if expired(tok) {
		s.log.Info("stored token expired, discarding")
		return s.store.Clear()
	}

	user, err := s.api.ProbeUser(ctx)
	if err != nil {
		if cerr := s.store.Clear(); cerr != nil {
			s.log.Warn("discard rejected token", zap.Error(cerr))
		}
		s.log.Info("stored token rejected, discarding", zap.Error(err))
		return nil
	}

	s.commit(tok, user)
	return nil
}

// expired parses the token as a JWT and checks the exp claim. Opaque or
// claim-less tokens are left for the server to judge.
func expired(token string) bool {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	return claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time)
}

func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Authenticating
	s.err = ""
}

func (s *Session) commit(token string, user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Authenticated
	s.token = token
	s.user = user
	s.err = ""
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Anonymous
	s.token = ""
	s.user = model.User{}
	s.err = err.Error()
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Anonymous
	s.token = ""
	s.user = model.User{}
	s.err = ""
}
