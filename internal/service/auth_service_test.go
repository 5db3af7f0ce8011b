package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vermion/dashboard/internal/adapter/store/storefakes"
	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/port"
	"github.com/vermion/dashboard/internal/service"
)

const (
	testCode   = "abc123"
	testUserID = "42"
	testTTL    = 168 * time.Hour
)

// fakeProvider is a scriptable port.AuthProvider.
type fakeProvider struct {
	exchangeErr error
	identityErr error
	guildErr    error
	user        domain.User
	guilds      []domain.GuildMembership
	lastCode    string
}

func (f *fakeProvider) AuthURL(state string) string {
	return "https://discord.test/oauth2/authorize?state=" + state
}

func (f *fakeProvider) ExchangeCode(_ context.Context, code string) (*domain.TokenPair, error) {
	f.lastCode = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &domain.TokenPair{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, TokenType: "Bearer"}, nil
}

func (f *fakeProvider) FetchIdentity(_ context.Context, _ string) (*domain.User, error) {
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	user := f.user
	return &user, nil
}

func (f *fakeProvider) FetchGuilds(_ context.Context, _ string) ([]domain.GuildMembership, error) {
	if f.guildErr != nil {
		return nil, f.guildErr
	}
	return append([]domain.GuildMembership(nil), f.guilds...), nil
}

type authFixture struct {
	provider *fakeProvider
	store    *storefakes.FakeStore
	service  *service.AuthService
}

func newAuthFixture() *authFixture {
	provider := &fakeProvider{
		user: domain.User{ID: testUserID, Username: "vermion-fan", Discriminator: "0001", Avatar: "a1b2"},
		guilds: []domain.GuildMembership{
			{GuildID: "1", GuildName: "Test Guild", Permissions: 8},
		},
	}
	fakeStore := storefakes.NewFakeStore()
	return &authFixture{
		provider: provider,
		store:    fakeStore,
		service:  service.NewAuthService(provider, fakeStore, fakeStore, testTTL),
	}
}

func TestHandleCallbackCreatesSessionAndSyncsGuilds(t *testing.T) {
	fx := newAuthFixture()

	token, user, err := fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err)
	require.Equal(t, testCode, fx.provider.lastCode)
	require.Equal(t, testUserID, user.ID)
	require.NotEmpty(t, token)

	session, ok := fx.store.Session(token)
	require.True(t, ok)
	require.Equal(t, testUserID, session.UserID)
	require.WithinDuration(t, time.Now().Add(testTTL), session.ExpiresAt, time.Minute)

	membership, err := fx.store.Membership(context.Background(), testUserID, "1")
	require.NoError(t, err)
	require.NotNil(t, membership)
	require.Equal(t, uint64(8), membership.Permissions)
}

func TestHandleCallbackTokensAreUnique(t *testing.T) {
	fx := newAuthFixture()

	first, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err)
	second, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err)

	// Multi-device: both sessions coexist and the tokens differ.
	require.NotEqual(t, first, second)
	require.Equal(t, 2, fx.store.SessionCount())
}

func TestHandleCallbackExchangeFailureAbortsLogin(t *testing.T) {
	fx := newAuthFixture()
	fx.provider.exchangeErr = port.ErrUpstreamAuth

	_, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.ErrorIs(t, err, port.ErrUpstreamAuth)
	require.Equal(t, 0, fx.store.SessionCount())
}

func TestHandleCallbackIdentityFailureAbortsLogin(t *testing.T) {
	fx := newAuthFixture()
	fx.provider.identityErr = port.ErrUpstreamAuth

	_, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.ErrorIs(t, err, port.ErrUpstreamAuth)
	require.Equal(t, 0, fx.store.SessionCount())
}

func TestHandleCallbackDegradedGuildFetchKeepsOldMemberships(t *testing.T) {
	fx := newAuthFixture()

	// First login populates memberships.
	_, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err)

	// Second login cannot fetch guilds; the stored set must survive.
	fx.provider.guildErr = errors.New("discord 502")
	_, _, err = fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err, "login must still succeed once identity is confirmed")

	membership, err := fx.store.Membership(context.Background(), testUserID, "1")
	require.NoError(t, err)
	require.NotNil(t, membership, "degraded fetch must not wipe memberships")
}

func TestHandleCallbackGenuineEmptyGuildListWipesMemberships(t *testing.T) {
	fx := newAuthFixture()

	_, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err)

	fx.provider.guilds = nil
	_, _, err = fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err)

	memberships, err := fx.store.ListMemberships(context.Background(), testUserID)
	require.NoError(t, err)
	require.Empty(t, memberships, "authoritative empty list is a full replace")
}

func TestHandleCallbackSessionStorageFailure(t *testing.T) {
	fx := newAuthFixture()
	fx.store.CreateSessionErr = errors.New("disk full")

	_, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.Error(t, err)
	require.Equal(t, 0, fx.store.SessionCount(), "failed session must not be reported as created")
}

func TestLogoutIsIdempotent(t *testing.T) {
	fx := newAuthFixture()

	token, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err)

	require.NoError(t, fx.service.Logout(context.Background(), token))
	require.NoError(t, fx.service.Logout(context.Background(), token))
	require.NoError(t, fx.service.Logout(context.Background(), ""))

	user, err := fx.store.SessionUser(context.Background(), token, time.Now())
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestExpiredSessionIsInvisibleAtLookup(t *testing.T) {
	fx := newAuthFixture()

	token, _, err := fx.service.HandleCallback(context.Background(), testCode)
	require.NoError(t, err)

	// The row still physically exists past the TTL; lookup must not see it.
	future := time.Now().Add(testTTL + time.Second)
	user, err := fx.store.SessionUser(context.Background(), token, future)
	require.NoError(t, err)
	require.Nil(t, user)
	require.Equal(t, 1, fx.store.SessionCount())

	// The sweeper is hygiene only.
	n, err := fx.store.DeleteExpiredSessions(context.Background(), future)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, 0, fx.store.SessionCount())
}
