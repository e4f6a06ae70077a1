package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-0123456789"

func newTestAuthService(users *MockUserRepository) AuthService {
	return NewAuthService(users, testJWTSecret, time.Hour, logger.New("test"))
}

func TestRegister_HashesPasswordAndIssuesToken(t *testing.T) {
	users := new(MockUserRepository)
	service := newTestAuthService(users)
	userID := uuid.New()

	users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "owner@example.com" &&
			bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("correct-horse")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = userID
	}).Return(nil)

	result, err := service.Register(context.Background(), "  Owner@Example.com ", "correct-horse", "Owner")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Owner", result.User.FullName)

	parsed, err := service.ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
	users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	service := newTestAuthService(users)
	users.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateEmail)

	_, err := service.Register(context.Background(), "owner@example.com", "correct-horse", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_WeakPassword(t *testing.T) {
	users := new(MockUserRepository)
	service := newTestAuthService(users)

	_, err := service.Register(context.Background(), "owner@example.com", "short", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: uuid.New(), Email: "owner@example.com", PasswordHash: hash}

	users := new(MockUserRepository)
	service := newTestAuthService(users)
	users.On("FindByEmail", mock.Anything, "owner@example.com").Return(user, nil)
	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	result, err := service.Login(context.Background(), "OWNER@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)

	_, err = service.Login(context.Background(), "owner@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(context.Background(), "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseToken_Rejections(t *testing.T) {
	service := newTestAuthService(new(MockUserRepository))
	subject := uuid.NewString()

	sign := func(secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	valid := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"

	badSubject := valid
	badSubject.Subject = "not-a-uuid"

	tests := map[string]string{
		"garbage":          "not.a.token",
		"wrong secret":     sign("another-secret-0123456789", jwt.SigningMethodHS256, valid),
		"wrong method":     sign(testJWTSecret, jwt.SigningMethodHS512, valid),
		"expired":          sign(testJWTSecret, jwt.SigningMethodHS256, expired),
		"wrong issuer":     sign(testJWTSecret, jwt.SigningMethodHS256, wrongIssuer),
		"non-uuid subject": sign(testJWTSecret, jwt.SigningMethodHS256, badSubject),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := service.ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	id, err := service.ParseToken(sign(testJWTSecret, jwt.SigningMethodHS256, valid))
	require.NoError(t, err)
	assert.Equal(t, subject, id.String())
}

func TestMe(t *testing.T) {
	users := new(MockUserRepository)
	service := newTestAuthService(users)
	known, gone := uuid.New(), uuid.New()

	users.On("FindByID", mock.Anything, known).Return(&models.User{ID: known}, nil)
	users.On("FindByID", mock.Anything, gone).Return(nil, nil)

	u, err := service.Me(context.Background(), known)
	require.NoError(t, err)
	assert.Equal(t, known, u.ID)

	_, err = service.Me(context.Background(), gone)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}
