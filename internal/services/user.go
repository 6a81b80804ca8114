package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserService handles account registration, login and bearer tokens
type UserService struct {
	users     UserStore
	jwtSecret string
	expDays   int
}

// NewUserService creates a new user service
func NewUserService(users UserStore, jwtSecret string, expDays int) *UserService {
	return &UserService{
		users:     users,
		jwtSecret: jwtSecret,
		expDays:   expDays,
	}
}

// RegisterInput carries the fields for account creation
type RegisterInput struct {
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	AvatarURL *string  `json:"avatar_url"`
	Bio       *string  `json:"bio"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Register creates a new account with a hashed password
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Email == "" || in.Username == "" {
		return nil, apperr.New(apperr.Validation, "email and username are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Newf(apperr.Validation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		AvatarURL:    in.AvatarURL,
		Bio:          in.Bio,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the account
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.New(apperr.Unauthenticated, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.New(apperr.Unauthenticated, "invalid email or password")
	}
	return user, nil
}

// GetByID retrieves an account by ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// IssueToken generates a bearer token for a user. Every authenticated
// success response re-issues one, giving callers a sliding session.
func (s *UserService) IssueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"jti": uuid.NewString(),
		"exp": now.AddDate(0, 0, s.expDays).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a bearer token and returns the user ID from
// its subject claim
func (s *UserService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.Unauthenticated, "token has expired", err)
	}
	if !token.Valid {
		return 0, apperr.New(apperr.Unauthenticated, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperr.New(apperr.Unauthenticated, "invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, apperr.New(apperr.Unauthenticated, "subject not found in token")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.Unauthenticated, "invalid token subject")
	}
	return userID, nil
}
