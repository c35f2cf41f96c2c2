package services

import (
	"fmt"
	"time"

	"direct-chat/auth"
	"direct-chat/domain"
	"direct-chat/errors"
	"direct-chat/repositories"
)

type IAuthService interface {
	Register(email, displayName, password string) (Token, repositories.User, error)
	Login(email, password string) (Token, repositories.User, error)
	Verify(token string) (domain.Identity, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokenDuration time.Duration) IAuthService {
	return &AuthService{userRepository: repo, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(email, displayName, password string) (Token, repositories.User, error) {
	valReq := auth.RegisterRequest{
		Email:       email,
		DisplayName: displayName,
		Password:    password,
	}

	// 1. Validate business rules (email format, password complexity)
	// before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", repositories.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password using Argon2id.
	// Done in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", repositories.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash.
	userID, err := s.userRepository.CreateUser(email, displayName, hashedPassword)
	if err != nil {
		return "", repositories.User{}, err // Propagates ErrUserAlreadyExists if email is taken
	}

	// 4. Generate the initial session token.
	token, err := auth.GenerateToken(userID, displayName, s.tokenDuration)
	if err != nil {
		return "", repositories.User{}, errors.ErrTokenGeneration
	}

	user := repositories.User{ID: userID, Email: email, DisplayName: displayName}
	return Token(token), user, nil
}

func (s *AuthService) Login(email, password string) (Token, repositories.User, error) {
	// 1. Retrieve user by email from storage.
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", repositories.User{}, errors.ErrInvalidCredentials
	}

	// 2. Compare the provided password with the stored hash.
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", repositories.User{}, errors.ErrInvalidCredentials
	}

	// 3. Issue the JWT token.
	token, err := auth.GenerateToken(user.ID, user.DisplayName, s.tokenDuration)
	if err != nil {
		return "", repositories.User{}, errors.ErrTokenGeneration
	}

	return Token(token), user, nil
}

// Verify is the identity verification surface consumed at connection time.
func (s *AuthService) Verify(token string) (domain.Identity, error) {
	return auth.IdentityFromToken(token)
}
