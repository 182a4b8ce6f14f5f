package services

import (
	"becky-backend/database"
	"becky-backend/models"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "becky.db"), false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, Name: "Ana", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedAccount(t *testing.T, db *gorm.DB, userID uuid.UUID, name string) models.Account {
	t.Helper()
	account := models.Account{UserID: userID, Name: name, Type: models.AccountChecking}
	require.NoError(t, db.Create(&account).Error)
	return account
}

func seedMovement(t *testing.T, db *gorm.DB, m models.Movement) models.Movement {
	t.Helper()
	require.NoError(t, db.Create(&m).Error)
	return m
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) models.Movement {
	t.Helper()
	var m models.Movement
	require.NoError(t, db.First(&m, "id = ?", id).Error)
	return m
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "want %s, got %s", want, got.String())
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDay(t *testing.T, want string, got time.Time) {
	t.Helper()
	assert.Equal(t, want, got.UTC().Format("2006-01-02"))
}

func fixedClock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
