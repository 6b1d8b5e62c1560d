package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mjacome/quill/internal/database"
	"github.com/mjacome/quill/internal/models"
)

var (
	// ErrInvalidCredentials covers unknown username, wrong password and
	// insufficient role on admin login alike, so responses never reveal
	// which part of the credentials failed.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	DefaultUserTTL  = 7 * 24 * time.Hour
	DefaultAdminTTL = 24 * time.Hour
)

// dummyHash keeps the bcrypt compare on the unknown-username path, so
// login latency does not betray whether the account exists.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type (
	Claims struct {
		Id       int64       `json:"id"`
		Username string      `json:"username"`
		Type     models.Role `json:"type"`
		jwt.RegisteredClaims
	}

	Config struct {
		Secret   string
		UserTTL  time.Duration
		AdminTTL time.Duration
	}

	Service struct {
		users    database.UserRepository
		secret   []byte
		userTTL  time.Duration
		adminTTL time.Duration
	}
)

func NewService(users database.UserRepository, cfg *Config) *Service {
	userTTL := cfg.UserTTL
	if userTTL == 0 {
		userTTL = DefaultUserTTL
	}
	adminTTL := cfg.AdminTTL
	if adminTTL == 0 {
		adminTTL = DefaultAdminTTL
	}
	return &Service{
		users:    users,
		secret:   []byte(cfg.Secret),
		userTTL:  userTTL,
		adminTTL: adminTTL,
	}
}

// Register hashes the password and stores a new ordinary account.
func (s *Service) Register(ctx context.Context, username, password, email string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return -1, err
	}
	return s.users.Add(ctx, &models.UserDTO{
		Username: username,
		Password: string(hash),
		Email:    email,
		Type:     models.RoleUser,
	})
}

// HashPassword is exported for the admin bootstrap tool.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// Login checks the credentials against the store and issues a signed
// token carrying {id, username, type}. With adminOnly set, non-admin
// accounts fail exactly like bad credentials and the shorter admin TTL
// is used.
func (s *Service) Login(ctx context.Context, username, password string, adminOnly bool) (string, error) {
	u, err := s.users.GetByName(ctx, username)
	if err != nil {
		return "", err
	}
	if u == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if adminOnly && !u.Type.IsAdmin() {
		log.Debug().Str("username", username).Msg("admin login refused for ordinary account")
		return "", ErrInvalidCredentials
	}

	ttl := s.userTTL
	if adminOnly {
		ttl = s.adminTTL
	}
	claims := &Claims{
		Id:       u.Id,
		Username: u.Username,
		Type:     u.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses the bearer token and returns its claims. Validity is
// fully determined by signature and expiry; there is no server-side
// session state, and a role change after issuance does not invalidate
// an outstanding token.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}
