package router

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackboard/backend/internal/handler"
	"github.com/trackboard/backend/internal/middleware"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/internal/service"
	"github.com/trackboard/backend/pkg/token"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAccessSecret  = "access-secret-a"
	testRefreshSecret = "refresh-secret-b"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	tokens := token.NewManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 168*time.Hour)

	authService := service.NewAuthService(db, tokens)
	projectService := service.NewProjectService(db)
	boardService := service.NewBoardService(db)
	ticketService := service.NewTicketService(db, nil)
	commentService := service.NewCommentService(db)

	r := gin.New()
	Setup(r, Deps{
		DB:             db,
		Tokens:         tokens,
		ProjectService: projectService,
		AuthHandler:    handler.NewAuthHandler(authService, false),
		ProjectHandler: handler.NewProjectHandler(projectService),
		BoardHandler:   handler.NewBoardHandler(boardService),
		TicketHandler:  handler.NewTicketHandler(ticketService),
		CommentHandler: handler.NewCommentHandler(commentService, ticketService),
		EventsHandler:  handler.NewEventsHandler(nil),
	})
	return r, db
}

func doJSON(r *gin.Engine, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func register(t *testing.T, r *gin.Engine, email, username string) (*http.Cookie, *http.Cookie) {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    email,
		"username": username,
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return cookieByName(t, w, middleware.AccessTokenCookie), cookieByName(t, w, middleware.RefreshTokenCookie)
}

func TestAuthCookieContract(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "ada@example.com",
		"username": "ada",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	access := cookieByName(t, w, "access_token")
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 900, access.MaxAge)
	assert.True(t, access.HttpOnly)

	// The refresh secret only travels to the refresh endpoint.
	refresh := cookieByName(t, w, "refresh_token")
	assert.Equal(t, "/api/v1/auth/refresh", refresh.Path)
	assert.Equal(t, 604800, refresh.MaxAge)
	assert.True(t, refresh.HttpOnly)

	// The response body never carries credential material.
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "refresh_hash")
}

func TestExpiredAccessThenRefresh(t *testing.T) {
	r, _ := setupRouter(t)
	_, refresh := register(t, r, "ada@example.com", "ada")

	// A token past its TTL, signed with the real secret.
	expired := token.NewManager(testAccessSecret, testRefreshSecret, -time.Minute, 168*time.Hour)
	pair, err := expired.NewPair(1, "ada@example.com")
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/api/v1/auth/me", nil,
		&http.Cookie{Name: "access_token", Value: pair.Access})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Refresh mints a fresh pair...
	w = doJSON(r, http.MethodPost, "/api/v1/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	newAccess := cookieByName(t, w, "access_token")

	// ...and the new access token is accepted.
	w = doJSON(r, http.MethodGet, "/api/v1/auth/me", nil, newAccess)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshTokenSingleUse(t *testing.T) {
	r, _ := setupRouter(t)
	_, refresh := register(t, r, "ada@example.com", "ada")

	w := doJSON(r, http.MethodPost, "/api/v1/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, w.Code)

	// The pre-rotation token is dead the moment the rotation lands.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	r, _ := setupRouter(t)
	access, refresh := register(t, r, "ada@example.com", "ada")

	w := doJSON(r, http.MethodPost, "/api/v1/auth/logout", nil, access)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Still signed, still unexpired, still rejected.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestErrorBodyShape(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
		Error      string `json:"error"`
		Path       string `json:"path"`
		Timestamp  string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
	assert.Equal(t, "Unauthorized", body.Error)
	assert.Equal(t, "/api/v1/auth/me", body.Path)
	assert.NotEmpty(t, body.Message)
	assert.NotEmpty(t, body.Timestamp)
}

func TestProjectAccessChain(t *testing.T) {
	r, db := setupRouter(t)
	ownerAccess, _ := register(t, r, "owner@example.com", "owner")
	strangerAccess, _ := register(t, r, "stranger@example.com", "stranger")

	w := doJSON(r, http.MethodPost, "/api/v1/projects", gin.H{"key": "PAY", "name": "Payments"}, ownerAccess)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var project model.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))

	base := fmt.Sprintf("/api/v1/projects/%d", project.ID)

	// Round trip: members contains exactly the creator as OWNER, the board
	// its four seeded columns.
	w = doJSON(r, http.MethodGet, base, nil, ownerAccess)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	require.Len(t, fetched.Members, 1)
	assert.Equal(t, model.RoleOwner, fetched.Members[0].Role)
	require.NotNil(t, fetched.Board)
	assert.Len(t, fetched.Board.Statuses, 4)

	// A non-member is told "no", an unknown project "what project?".
	w = doJSON(r, http.MethodGet, base, nil, strangerAccess)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, http.MethodGet, "/api/v1/projects/9999", nil, ownerAccess)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Invite the stranger as a plain member.
	w = doJSON(r, http.MethodPost, base+"/members",
		gin.H{"email": "stranger@example.com", "role": "member"}, ownerAccess)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, base, nil, strangerAccess)
	assert.Equal(t, http.StatusOK, w.Code)

	// Members view and create tickets but do not manage the project.
	w = doJSON(r, http.MethodPost, base+"/tickets", gin.H{"title": "First task"}, strangerAccess)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(r, http.MethodPut, base, gin.H{"name": "Renamed"}, strangerAccess)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, http.MethodPut, base+"/archive", nil, strangerAccess)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admins cannot remove admins; that is the owner's call.
	register(t, r, "admin2@example.com", "admin2")
	w = doJSON(r, http.MethodPost, base+"/members",
		gin.H{"email": "admin2@example.com", "role": "admin"}, ownerAccess)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, db.Model(&model.Membership{}).
		Where("project_id = ? AND role = ?", project.ID, model.RoleMember).
		Update("role", model.RoleAdmin).Error)

	var admin2User model.User
	require.NoError(t, db.Where("email = ?", "admin2@example.com").First(&admin2User).Error)
	w = doJSON(r, http.MethodDelete, fmt.Sprintf("%s/members/%d", base, admin2User.ID), nil, strangerAccess)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// And nobody removes the owner.
	var ownerUser model.User
	require.NoError(t, db.Where("email = ?", "owner@example.com").First(&ownerUser).Error)
	w = doJSON(r, http.MethodDelete, fmt.Sprintf("%s/members/%d", base, ownerUser.ID), nil, ownerAccess)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTicketMoveOverHTTP(t *testing.T) {
	r, db := setupRouter(t)
	access, _ := register(t, r, "owner@example.com", "owner")

	w := doJSON(r, http.MethodPost, "/api/v1/projects", gin.H{"key": "PAY", "name": "Payments"}, access)
	require.Equal(t, http.StatusCreated, w.Code)
	var project model.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	base := fmt.Sprintf("/api/v1/projects/%d", project.ID)

	for i := 0; i < 3; i++ {
		w = doJSON(r, http.MethodPost, base+"/tickets", gin.H{"title": fmt.Sprintf("task %d", i)}, access)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	var doing model.Status
	require.NoError(t, db.Where("name = ?", "In Progress").First(&doing).Error)

	w = doJSON(r, http.MethodPost, base+"/tickets/2/move",
		gin.H{"status_id": doing.ID, "position": 0}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var moved model.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.Equal(t, doing.ID, moved.StatusID)
	assert.Equal(t, 0, moved.Position)

	// Ticket addressed by its project-scoped number.
	w = doJSON(r, http.MethodGet, base+"/tickets/2", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, 2, fetched.Number)
}

func TestCommentsOverHTTP(t *testing.T) {
	r, _ := setupRouter(t)
	access, _ := register(t, r, "owner@example.com", "owner")

	w := doJSON(r, http.MethodPost, "/api/v1/projects", gin.H{"key": "PAY", "name": "Payments"}, access)
	require.Equal(t, http.StatusCreated, w.Code)
	var project model.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	base := fmt.Sprintf("/api/v1/projects/%d", project.ID)

	w = doJSON(r, http.MethodPost, base+"/tickets", gin.H{"title": "task"}, access)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, base+"/tickets/1/comments", gin.H{"body": "looks wrong"}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment model.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))

	w = doJSON(r, http.MethodPost, base+"/tickets/1/comments",
		gin.H{"body": "agreed", "parent_id": comment.ID}, access)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, base+"/tickets/1/comments", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []model.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	assert.Len(t, comments, 2)
}
