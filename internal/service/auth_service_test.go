package service

import (
	"context"
	"testing"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/config"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	users map[string]*model.User
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.Username] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.users[username]
	if !ok || !u.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func newAuthEnv(t *testing.T) (AuthService, *stubUserRepo) {
	t.Helper()
	repo := &stubUserRepo{users: make(map[string]*model.User)}
	hash, err := bcrypt.GenerateFromPassword([]byte("sastre2026"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &model.User{
		Username:     "ana",
		Name:         "Ana",
		PasswordHash: string(hash),
		Role:         "cashier",
		Active:       true,
	}))
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 8, JWTRefreshHours: 24}
	return NewAuthService(repo, cfg), repo
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthEnv(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana", Password: "sastre2026"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "ana", resp.User.Username)
	assert.Equal(t, "cashier", resp.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newAuthEnv(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownOrInactiveUser(t *testing.T) {
	svc, repo := newAuthEnv(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ghost", Password: "sastre2026"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	repo.users["ana"].Active = false
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "ana", Password: "sastre2026"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	svc, _ := newAuthEnv(t)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana", Password: "sastre2026"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "ana", refreshed.User.Username)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _ := newAuthEnv(t)

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}
