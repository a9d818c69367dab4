package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Claims is the payload carried by both token kinds: subject id and email,
// nothing else. Authorization is re-derived from the store on every request.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into an account id.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject: %w", err)
	}
	return uint(id), nil
}

// Pair is one access token and one refresh token minted together.
type Pair struct {
	Access  string
	Refresh string
}

// Manager signs and verifies the two token kinds with independent secrets,
// so a leaked access secret cannot forge a refresh token and vice versa.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// NewPair signs both tokens of a pair. The signatures are independent, so
// they are computed concurrently.
func (m *Manager) NewPair(userID uint, email string) (Pair, error) {
	var pair Pair
	var g errgroup.Group
	g.Go(func() error {
		var err error
		pair.Access, err = sign(m.accessSecret, m.accessTTL, userID, email)
		return err
	})
	g.Go(func() error {
		var err error
		pair.Refresh, err = sign(m.refreshSecret, m.refreshTTL, userID, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return Pair{}, err
	}
	return pair, nil
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *Manager) VerifyAccess(tokenStr string) (*Claims, error) {
	return verify(m.accessSecret, tokenStr)
}

func (m *Manager) VerifyRefresh(tokenStr string) (*Claims, error) {
	return verify(m.refreshSecret, tokenStr)
}

func sign(secret []byte, ttl time.Duration, userID uint, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// Random jti: timestamps have second resolution, so without it
			// two tokens minted in the same second would be byte-identical
			// and a rotation could re-issue the token it is replacing.
			ID: uuid.NewString(),
		},
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenStr, nil
}

func verify(secret []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
