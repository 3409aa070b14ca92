package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurpe/carmate-contracts/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// AccessClaims is the payload of the access tokens issued by the auth service.
type AccessClaims struct {
	CompanyID uint `json:"company_id"`
	IsAdmin   bool `json:"is_admin"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenString string) (model.Actor, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, p.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Actor{}, ErrExpiredToken
		}
		return model.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return model.Actor{}, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 || claims.CompanyID == 0 {
		return model.Actor{}, ErrInvalidToken
	}
	return model.Actor{
		ID:        uint(userID),
		CompanyID: claims.CompanyID,
		IsAdmin:   claims.IsAdmin,
	}, nil
}

// Issue signs an access token for actor. Production tokens come from the auth
// service; this exists for tooling and tests.
func (p *Parser) Issue(actor model.Actor, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = strconv.FormatUint(uint64(actor.ID), 10)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		CompanyID:        actor.CompanyID,
		IsAdmin:          actor.IsAdmin,
		RegisteredClaims: claims,
	})
	return token.SignedString(p.secret)
}

func (p *Parser) keyFunc(*jwt.Token) (interface{}, error) {
	return p.secret, nil
}
