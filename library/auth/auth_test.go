package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/auth"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/testutil/observability/testdoubles"
)

var (
	secret    = []byte("test-secret")
	fakeClock = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
)

func newTokens(t *testing.T, at time.Time) auth.Tokens {
	t.Helper()

	tokens, err := auth.NewTokens(secret, 7*24*time.Hour, auth.WithTokenClock(core.FixedClock(at)))
	require.NoError(t, err)

	return tokens
}

func givenAccount(t *testing.T, store *memoryengine.Store, hasher auth.BcryptHasher, email, password string) ledger.User {
	t.Helper()

	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	user, err := store.CreateUser(context.Background(), ledger.User{
		ID:           uuid.New(),
		Name:         "Jane Reader",
		Email:        email,
		PasswordHash: hash,
		Role:         ledger.RoleLibrarian,
		CreatedAt:    fakeClock,
	})
	require.NoError(t, err)

	return user
}

func Test_BcryptHasher_HashAndCompare(t *testing.T) {
	// arrange
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	// act
	hash, err := hasher.Hash("s3cret")

	// assert
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.NoError(t, hasher.Compare(hash, "s3cret"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, hasher.Compare("not-a-hash", "s3cret"), auth.ErrInvalidCredentials)
}

func Test_BcryptHasher_OutOfRangeCostFallsBackToDefault(t *testing.T) {
	// arrange
	hasher := auth.NewBcryptHasher(bcrypt.MaxCost + 1)

	// act
	hash, err := hasher.Hash("s3cret")

	// assert
	require.NoError(t, err)
	cost, costErr := bcrypt.Cost([]byte(hash))
	require.NoError(t, costErr)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func Test_NewTokens_RejectsInvalidSettings(t *testing.T) {
	_, err := auth.NewTokens(nil, time.Hour)
	assert.ErrorIs(t, err, auth.ErrEmptySecret)

	_, err = auth.NewTokens(secret, 0)
	assert.ErrorIs(t, err, auth.ErrInvalidTTL)
}

func Test_Tokens_IssueAndParse(t *testing.T) {
	// arrange
	tokens := newTokens(t, fakeClock)
	userID := uuid.New()

	// act
	token, expiresAt, err := tokens.Issue(userID)
	require.NoError(t, err)
	parsed, parseErr := tokens.Parse(token)

	// assert
	require.NoError(t, parseErr)
	assert.Equal(t, userID, parsed)
	assert.Equal(t, fakeClock.Add(7*24*time.Hour), expiresAt)
}

func Test_Tokens_Parse_Rejects(t *testing.T) {
	userID := uuid.New()
	token, _, err := newTokens(t, fakeClock).Issue(userID)
	require.NoError(t, err)

	foreign, err := auth.NewTokens([]byte("other-secret"), time.Hour, auth.WithTokenClock(core.FixedClock(fakeClock)))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(fakeClock.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		tokens auth.Tokens
		token  string
	}{
		{name: "empty", tokens: newTokens(t, fakeClock), token: ""},
		{name: "garbage", tokens: newTokens(t, fakeClock), token: "not.a.token"},
		{name: "expired", tokens: newTokens(t, fakeClock.Add(8*24*time.Hour)), token: token},
		{name: "foreign secret", tokens: foreign, token: token},
		{name: "unsigned", tokens: newTokens(t, fakeClock), token: unsigned},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, parseErr := tc.tokens.Parse(tc.token)

			// assert
			assert.ErrorIs(t, parseErr, auth.ErrInvalidToken)
		})
	}
}

func Test_Authenticator_Login(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	user := givenAccount(t, store, hasher, "jane@example.com", "s3cret")
	logger := testdoubles.NewContextualLoggerSpy(true)
	authenticator := auth.NewAuthenticator(store, hasher, newTokens(t, fakeClock), auth.WithLogger(logger))

	// act
	session, err := authenticator.Login(ctx, " Jane@Example.com ", "s3cret")

	// assert
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.NotEmpty(t, session.Token)

	actor, authErr := authenticator.Authenticate(ctx, session.Token)
	require.NoError(t, authErr)
	assert.Equal(t, core.BuildActor(user.ID, ledger.RoleLibrarian), actor)
	assert.Empty(t, logger.Records())
}

func Test_Authenticator_Login_InvalidCredentials(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	givenAccount(t, store, hasher, "jane@example.com", "s3cret")
	logger := testdoubles.NewContextualLoggerSpy(true)
	authenticator := auth.NewAuthenticator(store, hasher, newTokens(t, fakeClock), auth.WithLogger(logger))

	// act
	_, unknownErr := authenticator.Login(ctx, "john@example.com", "s3cret")
	_, mismatchErr := authenticator.Login(ctx, "jane@example.com", "wrong")

	// assert
	assert.ErrorIs(t, unknownErr, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, mismatchErr, auth.ErrInvalidCredentials)
	assert.True(t, logger.HasWarnLog("unknown email"))
	assert.True(t, logger.HasWarnLog("password mismatch"))
}

func Test_Authenticator_Authenticate_RemovedAccount(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	user := givenAccount(t, store, hasher, "jane@example.com", "s3cret")
	authenticator := auth.NewAuthenticator(store, hasher, newTokens(t, fakeClock))
	session, err := authenticator.IssueSession(user)
	require.NoError(t, err)
	require.NoError(t, store.DeleteUser(ctx, user.ID))

	// act
	_, authErr := authenticator.Authenticate(ctx, session.Token)

	// assert
	assert.ErrorIs(t, authErr, auth.ErrInvalidToken)
}
