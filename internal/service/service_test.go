package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trackboard/backend/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a uniquely named shared-cache in-memory SQLite database,
// so concurrent connections from the pool see the same data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := make([]byte, 8)
	_, err := rand.Read(name)
	require.NoError(t, err)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", hex.EncodeToString(name))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// createUser inserts an account directly, bypassing the session manager.
func createUser(t *testing.T, db *gorm.DB, email, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: "x",
		Active:       true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createProject runs the full project-creation transaction for the owner.
func createProject(t *testing.T, db *gorm.DB, ownerID uint, key string) *model.Project {
	t.Helper()
	project, err := NewProjectService(db).Create(ownerID, CreateProjectInput{
		Key:  key,
		Name: key + " project",
	})
	require.NoError(t, err)
	return project
}

// addMember attaches an existing user to a project with the given role.
func addMember(t *testing.T, db *gorm.DB, projectID, userID uint, role model.Role) {
	t.Helper()
	require.NoError(t, db.Create(&model.Membership{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}).Error)
}
