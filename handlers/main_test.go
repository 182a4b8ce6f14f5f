package handlers

import (
	"becky-backend/config"
	"becky-backend/database"
	"becky-backend/middleware"
	"becky-backend/models"
	"becky-backend/utils"
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router  *gin.Engine
	user    models.User
	account models.Account
	token   string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, ChatRatePerMinute: 2}

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "becky.db"), false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		sqlDB.Close()
	})

	user := models.User{Email: "ana@example.com", Name: "Ana", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	account := models.Account{UserID: user.ID, Name: "Main", Type: models.AccountChecking}
	require.NoError(t, db.Create(&account).Error)
	token, err := utils.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/auth/register", Register)
	r.POST("/auth/login", Login)
	api := r.Group("/")
	api.Use(middleware.AuthRequired())
	{
		api.GET("/users/me", GetProfile)
		api.GET("/accounts", GetAccounts)
		api.GET("/movements/account/:accountId", GetAccountMovements)
		api.POST("/movements/account/:accountId", CreateMovement)
		api.GET("/movements/account/:accountId/export", ExportMovements)
		api.DELETE("/movements/:id", DeleteMovement)
		api.POST("/loans/shared-expense", CreateSharedExpense)
		api.POST("/loans/simple-loan", CreateSimpleLoan)
		api.GET("/loans/pending", GetPendingLoans)
		api.PATCH("/loans/:movementId/settle", SettleLoan)
		api.GET("/reports/preview/:type", PreviewReport)
		api.POST("/chat/becky", middleware.UserRateLimit(config.AppConfig.ChatRatePerMinute), ChatWithBecky)
	}

	return &testEnv{router: r, user: user, account: account, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
