package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrDocumentNotGranted = errors.New("document not covered by grant")

// DownloadClaims is the capability mailed to a customer: it authorizes
// downloading exactly the listed documents until it expires.
type DownloadClaims struct {
	ContractID  uint   `json:"contractId"`
	CustomerID  uint   `json:"customerId"`
	DocumentIDs []uint `json:"documentIds"`
	jwt.RegisteredClaims
}

type DownloadGrants struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewDownloadGrants(secret string, ttl time.Duration) *DownloadGrants {
	return &DownloadGrants{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (g *DownloadGrants) Issue(contractID, customerID uint, documentIDs []uint) (string, time.Time, error) {
	issuedAt := g.now()
	expiresAt := issuedAt.Add(g.ttl)
	claims := DownloadClaims{
		ContractID:  contractID,
		CustomerID:  customerID,
		DocumentIDs: documentIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download grant: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and that documentID is covered.
func (g *DownloadGrants) Verify(tokenString string, documentID uint) (*DownloadClaims, error) {
	claims := &DownloadClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !slices.Contains(claims.DocumentIDs, documentID) {
		return nil, ErrDocumentNotGranted
	}
	return claims, nil
}
