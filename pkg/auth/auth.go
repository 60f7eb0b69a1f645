package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/database"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidKeyFormat = errors.New("invalid key format")
	ErrInvalidSignature = errors.New("invalid signature")
)

var jwtAlgorithm = jwt.SigningMethodHS256

// tokenTTL is how long an admin session token stays valid
const tokenTTL = 24 * time.Hour

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service signs admin tokens and planning API keys with the configured secrets
type Service struct {
	jwtSecret    []byte
	masterSecret []byte
	bcryptCost   int
	now          func() time.Time
}

// NewService creates a Service from the auth configuration
func NewService(cfg config.AuthConfig) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		jwtSecret:    []byte(cfg.JWTSecret),
		masterSecret: []byte(cfg.APIMasterSecret),
		bcryptCost:   cost,
		now:          time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CreateToken creates a new JWT token for an admin
func (s *Service) CreateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken verifies a JWT token
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateKey creates a planning API key "<owner>.<hmac>" signed with the master secret
func (s *Service) GenerateKey(owner string) string {
	return owner + "." + s.sign(owner)
}

// VerifyKey validates an HMAC-signed API key and returns its owner
func (s *Service) VerifyKey(key string) (string, error) {
	owner, signature, ok := strings.Cut(key, ".")
	if !ok || owner == "" || strings.Contains(signature, ".") {
		return "", ErrInvalidKeyFormat
	}
	// constant-time comparison
	if !hmac.Equal([]byte(signature), []byte(s.sign(owner))) {
		return "", ErrInvalidSignature
	}
	return owner, nil
}

func (s *Service) sign(owner string) string {
	h := hmac.New(sha256.New, s.masterSecret)
	h.Write([]byte(owner))
	return hex.EncodeToString(h.Sum(nil))
}

// EnsureAdminExists creates the configured admin when no admin exists yet.
// It reports whether a user was created.
func (s *Service) EnsureAdminExists(db *gorm.DB, username, password string) (bool, error) {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return false, err
	}
	user := database.MasterUser{Username: username, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
