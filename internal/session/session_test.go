package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mkraev/docquery/internal/errs"
	"github.com/mkraev/docquery/internal/model"
	"github.com/mkraev/docquery/internal/tokenstore"
)

type fakeAPI struct {
	loginToks model.Tokens
	loginErr  error

	user    model.User
	userErr error

	registered model.User
	regErr     error

	loginCalls    int
	userCalls     int
	probeCalls    int
	registerCalls int
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) Login(context.Context, string, string) (model.Tokens, error) {
	f.loginCalls++
	return f.loginToks, f.loginErr
}

func (f *fakeAPI) Register(_ context.Context, reg model.Registration) (model.User, error) {
	f.registerCalls++
	return f.registered, f.regErr
}

func (f *fakeAPI) CurrentUser(context.Context) (model.User, error) {
	f.userCalls++
	return f.user, f.userErr
}

func (f *fakeAPI) ProbeUser(context.Context) (model.User, error) {
	f.probeCalls++
	return f.user, f.userErr
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestLogin_Success(t *testing.T) {
	api := &fakeAPI{
		loginToks: model.Tokens{Access: "tok"},
		user:      model.User{ID: 1, Email: "a@b.com", FirstName: "Ann"},
	}
	store := tokenstore.NewMemory()
	s := New(api, store)

	require.NoError(t, s.Login(context.Background(), "a@b.com", "x"))

	snap := s.Snapshot()
	require.True(t, snap.Authenticated)
	require.Equal(t, Authenticated, snap.State)
	require.Equal(t, "tok", snap.Token)
	require.Equal(t, "a@b.com", snap.User.Email)
	require.False(t, snap.Loading)
	require.Empty(t, snap.Err)

	tok, _ := store.Load()
	require.Equal(t, "tok", tok, "token must be persisted")
}

func TestLogin_EmptyCredentialsRejectedLocally(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, tokenstore.NewMemory())

	err := s.Login(context.Background(), "", "x")
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Zero(t, api.loginCalls, "no network call on local validation failure")
}

func TestLogin_TokenExchangeFailure(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("server error: bad credentials")}
	store := tokenstore.NewMemory()
	s := New(api, store)

	err := s.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	snap := s.Snapshot()
	require.False(t, snap.Authenticated)
	require.Equal(t, Anonymous, snap.State)
	require.Contains(t, snap.Err, "bad credentials")

	tok, _ := store.Load()
	require.Empty(t, tok)
}

func TestLogin_ProfileFetchFailureDiscardsToken(t *testing.T) {
	api := &fakeAPI{
		loginToks: model.Tokens{Access: "tok"},
		userErr:   errors.New("server error: profile unavailable"),
	}
	store := tokenstore.NewMemory()
	s := New(api, store)

	err := s.Login(context.Background(), "a@b.com", "x")
	require.Error(t, err)

	snap := s.Snapshot()
	require.False(t, snap.Authenticated, "no half-authenticated state")
	require.Empty(t, snap.Token)
	require.Empty(t, snap.User.Email)

	tok, _ := store.Load()
	require.Empty(t, tok, "token must be rolled back")
}

func TestRegister_DoesNotAuthenticate(t *testing.T) {
	api := &fakeAPI{registered: model.User{ID: 2, Email: "new@b.com"}}
	s := New(api, tokenstore.NewMemory())

	u, err := s.Register(context.Background(), model.Registration{
		Email: "new@b.com", Password: "pw", FirstName: "New",
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), u.ID)
	require.False(t, s.Snapshot().Authenticated)
}

func TestRegister_LocalValidation(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, tokenstore.NewMemory())

	_, err := s.Register(context.Background(), model.Registration{Email: "not-an-email", Password: "pw", FirstName: "N"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.Register(context.Background(), model.Registration{Email: "a@b.com", FirstName: "N"})
	require.ErrorIs(t, err, errs.ErrValidation)

	require.Zero(t, api.registerCalls, "invalid input must not reach the network")
}

func TestLogout_LocalOnly(t *testing.T) {
	api := &fakeAPI{
		loginToks: model.Tokens{Access: "tok"},
		user:      model.User{ID: 1, Email: "a@b.com"},
	}
	store := tokenstore.NewMemory()
	s := New(api, store)
	require.NoError(t, s.Login(context.Background(), "a@b.com", "x"))

	calls := api.loginCalls + api.userCalls + api.probeCalls + api.registerCalls
	s.Logout()

	require.Equal(t, calls, api.loginCalls+api.userCalls+api.probeCalls+api.registerCalls,
		"logout must not hit the network")
	snap := s.Snapshot()
	require.False(t, snap.Authenticated)
	require.Empty(t, snap.Err)
	tok, _ := store.Load()
	require.Empty(t, tok)
}

func TestHandleAuthReject_IdempotentUnderConcurrency(t *testing.T) {
	api := &fakeAPI{
		loginToks: model.Tokens{Access: "tok"},
		user:      model.User{ID: 1, Email: "a@b.com"},
	}
	s := New(api, tokenstore.NewMemory())
	require.NoError(t, s.Login(context.Background(), "a@b.com", "x"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.HandleAuthReject()
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.False(t, snap.Authenticated)
	require.Equal(t, Anonymous, snap.State)
	require.Contains(t, snap.Err, "session expired")
}

func TestRestore_ExpiredTokenDiscardedWithoutNetwork(t *testing.T) {
	api := &fakeAPI{}
	store := tokenstore.NewMemory()
	require.NoError(t, store.Save(signedToken(t, time.Now().Add(-time.Minute))))
	s := New(api, store)

	require.NoError(t, s.Restore(context.Background()))
	require.False(t, s.Snapshot().Authenticated)
	require.Zero(t, api.probeCalls, "expired token must be discarded before any call")

	tok, _ := store.Load()
	require.Empty(t, tok)
}

func TestRestore_ValidToken(t *testing.T) {
	api := &fakeAPI{user: model.User{ID: 1, Email: "a@b.com"}}
	store := tokenstore.NewMemory()
	valid := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Save(valid))
	s := New(api, store)

	require.NoError(t, s.Restore(context.Background()))

	snap := s.Snapshot()
	require.True(t, snap.Authenticated)
	require.Equal(t, valid, snap.Token)
	require.Equal(t, 1, api.probeCalls)
	require.Zero(t, api.userCalls, "restore must use the non-cascading probe")
}

func TestRestore_RejectedTokenStaysAnonymous(t *testing.T) {
	api := &fakeAPI{userErr: errors.New("unauthorized: session expired")}
	store := tokenstore.NewMemory()
	require.NoError(t, store.Save(signedToken(t, time.Now().Add(time.Hour))))
	s := New(api, store)

	require.NoError(t, s.Restore(context.Background()), "a rejected stored token is not a restore error")
	require.False(t, s.Snapshot().Authenticated)

	tok, _ := store.Load()
	require.Empty(t, tok)
}

func TestRestore_NoTokenIsNoop(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, tokenstore.NewMemory())
	require.NoError(t, s.Restore(context.Background()))
	require.Zero(t, api.probeCalls)
	require.Equal(t, Anonymous, s.Snapshot().State)
}
