package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/pkg/hash"
	"github.com/trackboard/backend/pkg/token"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	tokens := token.NewManager("access-secret-a", "refresh-secret-b", 15*time.Minute, 168*time.Hour)
	return NewAuthService(db, tokens)
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, pair, err := svc.Register(RegisterInput{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.True(t, user.Active)

	// Only the hash of the refresh token is retained.
	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.RefreshHash)
	assert.NotContains(t, *stored.RefreshHash, pair.Refresh)
	assert.True(t, hash.CompareToken(*stored.RefreshHash, pair.Refresh))
}

func TestRegisterStoreUnavailable(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	// A failed duplicate pre-check is a store error, never a clean
	// "no duplicate" pass.
	_, _, err = svc.Register(RegisterInput{Email: "ada@example.com", Username: "ada", Password: "correct horse"})
	require.Error(t, err)
	assert.Equal(t, apperr.Kind(0), apperr.KindOf(err))
	assert.Contains(t, err.Error(), "check email")
}

func TestRegisterDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, _, err := svc.Register(RegisterInput{Email: "ada@example.com", Username: "ada", Password: "correct horse"})
	require.NoError(t, err)

	_, _, err = svc.Register(RegisterInput{Email: "ada@example.com", Username: "other", Password: "correct horse"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, _, err = svc.Register(RegisterInput{Email: "other@example.com", Username: "ada", Password: "correct horse"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLoginUniformFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, _, err := svc.Register(RegisterInput{Email: "ada@example.com", Username: "ada", Password: "correct horse"})
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login("ada@example.com", "wrong password")
	_, _, unknownEmail := svc.Login("nobody@example.com", "wrong password")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(wrongPassword))
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(unknownEmail))
	// Byte-identical, so responses cannot be used to enumerate accounts.
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginDeactivated(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, _, err := svc.Register(RegisterInput{Email: "ada@example.com", Username: "ada", Password: "correct horse"})
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("active", false).Error)

	_, _, err = svc.Login("ada@example.com", "correct horse")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	assert.Equal(t, "Account deactivated", err.Error())
}

func TestLoginRotatesSession(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, first, err := svc.Register(RegisterInput{Email: "ada@example.com", Username: "ada", Password: "correct horse"})
	require.NoError(t, err)

	_, second, err := svc.Login("ada@example.com", "correct horse")
	require.NoError(t, err)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.RefreshHash)
	assert.False(t, hash.CompareToken(*stored.RefreshHash, first.Refresh))
	assert.True(t, hash.CompareToken(*stored.RefreshHash, second.Refresh))
}

func TestRefreshIsSingleUse(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, first, err := svc.Register(RegisterInput{Email: "ada@example.com", Username: "ada", Password: "correct horse"})
	require.NoError(t, err)

	second, err := svc.Refresh(user.ID, user.Email)
	require.NoError(t, err)
	assert.NotEqual(t, first.Refresh, second.Refresh)

	// The pre-rotation token no longer matches the stored hash even though
	// its signature is still valid.
	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.RefreshHash)
	assert.False(t, hash.CompareToken(*stored.RefreshHash, first.Refresh))
	assert.True(t, hash.CompareToken(*stored.RefreshHash, second.Refresh))
}

func TestLogoutIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, _, err := svc.Register(RegisterInput{Email: "ada@example.com", Username: "ada", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(user.ID))
	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Nil(t, stored.RefreshHash)

	// Logging out twice is not an error.
	require.NoError(t, svc.Logout(user.ID))
}
