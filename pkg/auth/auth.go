package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/config"
	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtAlgorithm = jwt.SigningMethodHS256

// Role is what a token holder may do
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
)

// Claims represents the JWT claims
type Claims struct {
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	TechnicianID string `json:"technician_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and checks tokens and API keys
type Manager struct {
	jwtSecret    []byte
	masterSecret []byte
	ttl          time.Duration
	bcryptCost   int
	now          func() time.Time
}

// NewManager builds a Manager from the auth config
func NewManager(cfg config.AuthConfig) *Manager {
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Manager{
		jwtSecret:    []byte(cfg.JWTSecret),
		masterSecret: []byte(cfg.APIMasterSecret),
		ttl:          ttl,
		bcryptCost:   cost,
		now:          time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func (m *Manager) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token. technicianID is only set for technicians.
func (m *Manager) CreateToken(username string, role Role, technicianID string) (string, error) {
	now := m.now()
	claims := &Claims{
		Username:     username,
		Role:         role,
		TechnicianID: technicianID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(m.jwtSecret)
}

// VerifyToken verifies a JWT token
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != RoleAdmin && claims.Role != RoleTechnician {
		return nil, errors.New("invalid role")
	}
	if claims.Role == RoleTechnician && claims.TechnicianID == "" {
		return nil, errors.New("technician token without technician id")
	}

	return claims, nil
}

// EnsureAdminExists creates the bootstrap admin when the table is empty.
// It reports whether a user was created.
func (m *Manager) EnsureAdminExists(db *gorm.DB, username, password string) (bool, error) {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := m.HashPassword(password)
	if err != nil {
		return false, err
	}
	user := database.MasterUser{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}

// AuthenticateAdmin checks master user credentials.
func AuthenticateAdmin(db *gorm.DB, username, password string) (*database.MasterUser, error) {
	var user database.MasterUser
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, errors.New("invalid credentials")
	}
	return &user, nil
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func (m *Manager) GenerateHMACKey(userID string) string {
	return userID + "." + m.sign(userID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its user ID
func (m *Manager) VerifyHMACKey(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", errors.New("invalid key format")
	}

	userID := parts[0]
	if !hmac.Equal([]byte(parts[1]), []byte(m.sign(userID))) {
		return "", errors.New("invalid signature")
	}
	return userID, nil
}

func (m *Manager) sign(userID string) string {
	h := hmac.New(sha256.New, m.masterSecret)
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}

// KeyPreview masks a key for listings
func KeyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// TouchAPIKey fetches or creates the record of a verified key and stamps its last use.
func TouchAPIKey(db *gorm.DB, key, name string) (*database.APIKey, error) {
	var apiKey database.APIKey
	err := db.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
		Key:        key,
		Name:       name,
		KeyPreview: KeyPreview(key),
		RateLimit:  10000,
	}).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	apiKey.LastUsed = &now
	if err := db.Model(&apiKey).Update("last_used", now).Error; err != nil {
		return nil, err
	}
	return &apiKey, nil
}
