package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"chkin-backend/models"
	"chkin-backend/utils"
)

const tokenIssuer = "chkin"

// Claims are the session claims carried by access tokens.
type Claims struct {
	Role       string `json:"role"`
	ProviderID *uint  `json:"provider_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthService handles accounts and access tokens.
type AuthService struct {
	DB     *gorm.DB
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewAuthService(db *gorm.DB, secret string, ttl time.Duration) *AuthService {
	return &AuthService{DB: db, Secret: []byte(secret), TTL: ttl, Now: utcNow}
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters: %w", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterPatient creates a patient account.
func (s *AuthService) RegisterPatient(fullName, email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(fullName) == "" {
		return models.User{}, fmt.Errorf("name and email are required: %w", ErrInvalidInput)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return models.User{}, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return models.User{}, fmt.Errorf("email already registered: %w", ErrConflict)
	}

	user := models.User{
		FullName: strings.TrimSpace(fullName),
		Email:    email,
		Password: hash,
		Role:     models.RolePatient,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed access token. Provider
// users can only sign in once their organisation is approved.
func (s *AuthService) Login(email, password string) (string, models.User, error) {
	var user models.User
	if err := s.DB.Preload("Provider").Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !isBcryptHash(user.Password) ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", models.User{}, ErrInvalidCredentials
	}
	if user.Role == models.RoleProvider {
		if user.Provider == nil || user.Provider.Status != models.ProviderApproved {
			return "", models.User{}, ErrProviderNotActive
		}
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", models.User{}, err
	}
	return token, user, nil
}

func (s *AuthService) IssueToken(user models.User) (string, error) {
	now := s.Now()
	jti, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	claims := Claims{
		Role:       user.Role,
		ProviderID: user.ProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates an access token and returns the caller it identifies.
func (s *AuthService) ParseToken(raw string) (Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidCredentials)
	}
	switch claims.Role {
	case models.RoleAdmin, models.RolePatient:
	case models.RoleProvider:
		if claims.ProviderID == nil {
			return Actor{}, fmt.Errorf("%w: provider token without provider", ErrInvalidCredentials)
		}
	default:
		return Actor{}, fmt.Errorf("%w: unknown role", ErrInvalidCredentials)
	}
	return Actor{UserID: uint(id), Role: claims.Role, ProviderID: claims.ProviderID}, nil
}
