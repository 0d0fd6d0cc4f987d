package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodevhub/internal/app"
	"autodevhub/internal/model"
	"autodevhub/internal/pkg/jwtutil"
)

type fakeUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*model.User{}}
}

func (f *fakeUserRepo) Create(user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByUsername(username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByID(id uint) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

const authSecret = "auth-test-secret"

func newAuthService() (*app.AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return app.NewAuthService(repo, authSecret, time.Hour), repo
}

func registerInput() app.RegisterInput {
	return app.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	}
}

func TestRegister(t *testing.T) {
	t.Run("Issues a token for the new user", func(t *testing.T) {
		service, repo := newAuthService()

		result, err := service.Register(registerInput())
		require.NoError(t, err)

		assert.Equal(t, "alice", result.User.Username)
		assert.NotEqual(t, "s3cret-pass", result.User.PasswordHash)
		require.Len(t, repo.users, 1)

		claims, err := jwtutil.ParseToken(authSecret, result.Token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, claims.UserID)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		service, _ := newAuthService()
		_, err := service.Register(registerInput())
		require.NoError(t, err)

		input := registerInput()
		input.Email = "other@example.com"
		_, err = service.Register(input)
		assert.ErrorIs(t, err, app.ErrUsernameExists)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		service, _ := newAuthService()
		_, err := service.Register(registerInput())
		require.NoError(t, err)

		input := registerInput()
		input.Username = "bob"
		_, err = service.Register(input)
		assert.ErrorIs(t, err, app.ErrEmailExists)
	})

	t.Run("Email comparison ignores case", func(t *testing.T) {
		service, _ := newAuthService()
		_, err := service.Register(registerInput())
		require.NoError(t, err)

		input := registerInput()
		input.Username = "bob"
		input.Email = "Alice@Example.com"
		_, err = service.Register(input)
		assert.ErrorIs(t, err, app.ErrEmailExists)
	})

	t.Run("Password too short", func(t *testing.T) {
		service, _ := newAuthService()
		input := registerInput()
		input.Password = "short"

		_, err := service.Register(input)
		assert.ErrorIs(t, err, app.ErrInvalidInput)
	})

	t.Run("Malformed email", func(t *testing.T) {
		service, _ := newAuthService()
		input := registerInput()
		input.Email = "not-an-email"

		_, err := service.Register(input)
		assert.ErrorIs(t, err, app.ErrInvalidInput)
	})

	t.Run("Username too short", func(t *testing.T) {
		service, _ := newAuthService()
		input := registerInput()
		input.Username = "al"

		_, err := service.Register(input)
		assert.ErrorIs(t, err, app.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	t.Run("Valid credentials", func(t *testing.T) {
		service, _ := newAuthService()
		_, err := service.Register(registerInput())
		require.NoError(t, err)

		result, err := service.Login(app.LoginInput{Username: "alice", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("Wrong password", func(t *testing.T) {
		service, _ := newAuthService()
		_, err := service.Register(registerInput())
		require.NoError(t, err)

		_, err = service.Login(app.LoginInput{Username: "alice", Password: "wrong-pass"})
		assert.ErrorIs(t, err, app.ErrInvalidCredential)
	})

	t.Run("Unknown user", func(t *testing.T) {
		service, _ := newAuthService()
		_, err := service.Login(app.LoginInput{Username: "nobody", Password: "s3cret-pass"})
		assert.ErrorIs(t, err, app.ErrInvalidCredential)
	})

	t.Run("Empty input", func(t *testing.T) {
		service, _ := newAuthService()
		_, err := service.Login(app.LoginInput{})
		assert.ErrorIs(t, err, app.ErrInvalidInput)
	})
}

func TestGetUserByID(t *testing.T) {
	service, _ := newAuthService()
	result, err := service.Register(registerInput())
	require.NoError(t, err)

	user, err := service.GetUserByID(result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = service.GetUserByID(0)
	assert.ErrorIs(t, err, app.ErrInvalidInput)
}
