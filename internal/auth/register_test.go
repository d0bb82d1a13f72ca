package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kreasivisual/kreasivisual-backend/internal/users"
	"github.com/kreasivisual/kreasivisual-backend/pkg/config"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/security"
)

func setupRegisterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  display_name TEXT NOT NULL,
  system_role TEXT NOT NULL DEFAULT 'buyer',
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(usersTable).Error)
	require.NoError(t, db.Exec("DELETE FROM users").Error)

	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newRegisterServiceForTest(t *testing.T, db *gorm.DB) RegisterService {
	t.Helper()

	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner:       gormTxRunner{db: db},
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterCreatesBuyer(t *testing.T) {
	db := setupRegisterTestDB(t)
	svc := newRegisterServiceForTest(t, db)

	err := svc.Register(context.Background(), RegisterRequest{
		DisplayName: "Warung Kopi Senja",
		Email:       "Owner@WarungSenja.ID",
		Password:    "rahasia-banget",
	})
	require.NoError(t, err)

	repo := users.NewRepository(db)
	user, err := repo.FindByEmail(context.Background(), "owner@warungsenja.id")
	require.NoError(t, err)

	assert.Equal(t, "owner@warungsenja.id", user.Email)
	assert.Equal(t, "Warung Kopi Senja", user.DisplayName)
	assert.Equal(t, "buyer", user.SystemRole)
	assert.NotEqual(t, "rahasia-banget", user.PasswordHash)

	ok, err := security.VerifyPassword("rahasia-banget", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupRegisterTestDB(t)
	svc := newRegisterServiceForTest(t, db)

	req := RegisterRequest{
		DisplayName: "Studio Arunika",
		Email:       "halo@arunika.co",
		Password:    "password-123",
	}
	require.NoError(t, svc.Register(context.Background(), req))

	err := svc.Register(context.Background(), req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	db := setupRegisterTestDB(t)
	svc := newRegisterServiceForTest(t, db)

	err := svc.Register(context.Background(), RegisterRequest{
		DisplayName: "   ",
		Email:       "someone@kreasivisual.id",
		Password:    "password-123",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	err = svc.Register(context.Background(), RegisterRequest{
		DisplayName: "Someone",
		Email:       "",
		Password:    "password-123",
	})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
