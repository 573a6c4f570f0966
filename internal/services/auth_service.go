package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/utils"
)

// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid email/username or password")

type AuthService struct {
	Users     UserStore
	Secret    []byte
	TokenTTL  time.Duration
	RequestID string
	Now       func() time.Time
}

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks the bcrypt password and issues an HS256 token.
func (s AuthService) Login(ctx context.Context, login, password string) (string, models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", models.User{}, domain.ValidationError{Msg: "email and password are required"}
	}
	u, err := s.Users.FindByLogin(ctx, login)
	if domain.IsNotFound(err) {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, err
	}
	if u.Status != "" && u.Status != "active" {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := s.Issue(u)
	if err != nil {
		return "", models.User{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "login", "user="+u.Username)
	return token, u, nil
}

func (s AuthService) Issue(u models.User) (string, error) {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := s.now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", domain.InternalError{Msg: "failed to sign token", Err: err}
	}
	return signed, nil
}

// ParseToken validates raw and returns the caller identity.
func (s AuthService) ParseToken(raw string) (domain.RequestContext, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.RequestContext{}, err
	}
	return domain.RequestContext{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

// CreateUser hashes password and stores a new active user.
func (s AuthService) CreateUser(ctx context.Context, name, username, email, password, role string) (models.User, error) {
	fields := map[string]string{}
	if strings.TrimSpace(username) == "" {
		fields["username"] = "required"
	}
	if !strings.Contains(email, "@") {
		fields["email"] = "invalid email"
	}
	if len(password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if !models.IsRole(role) {
		fields["role"] = "must be admin, dispatcher or viewer"
	}
	if len(fields) > 0 {
		return models.User{}, domain.ValidationError{Msg: "invalid user", Fields: fields}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, domain.InternalError{Msg: "failed to hash password", Err: err}
	}
	now := s.now()
	return s.Users.Create(ctx, models.User{
		Name:         strings.TrimSpace(name),
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
