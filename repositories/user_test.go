package repositories

import (
	"testing"

	apperrors "direct-chat/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Fetch(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	id, err := repository.CreateUser("alice@example.com", "Alice", "hashed-secret")
	req.NoError(err)
	req.NotEmpty(id)

	byEmail, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, byEmail.ID)
	req.Equal("Alice", byEmail.DisplayName)
	req.Equal("hashed-secret", byEmail.PasswordHash)
	req.False(byEmail.CreatedAt.IsZero())

	byID, err := repository.GetUserByID(id)
	req.NoError(err)
	req.Equal(byEmail, byID)
}

func TestUserRepository_Duplicate_Email_Is_Rejected(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	first, err := repository.CreateUser("alice@example.com", "Alice", "hash-one")
	req.NoError(err)

	_, err = repository.CreateUser("alice@example.com", "Imposter", "hash-two")
	req.ErrorIs(err, apperrors.ErrUserAlreadyExists)

	// The original account is untouched
	user, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(first, user.ID)
	req.Equal("Alice", user.DisplayName)
}

func TestUserRepository_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	_, err := repository.GetUserByEmail("ghost@example.com")
	req.ErrorIs(err, apperrors.ErrUserNotFound)

	_, err = repository.GetUserByID(uuid.NewString())
	req.ErrorIs(err, apperrors.ErrUserNotFound)
}

func TestUserRepository_ListUsers(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t))

	users, err := repository.ListUsers()
	req.NoError(err)
	req.Empty(users)

	aliceID, err := repository.CreateUser("alice@example.com", "Alice", "hash")
	req.NoError(err)
	bobID, err := repository.CreateUser("bob@example.com", "Bob", "hash")
	req.NoError(err)

	users, err = repository.ListUsers()
	req.NoError(err)
	req.Len(users, 2)

	ids := lo.Map(users, func(user User, _ int) string { return user.ID })
	req.ElementsMatch([]string{aliceID, bobID}, ids)
}
