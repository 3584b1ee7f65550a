package services

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/middleware"
)

type tokenServiceImpl struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewTokenService creates the JWT issuer used by the login endpoint.
func NewTokenService(secret string, expiry time.Duration, issuer string) portssvc.TokenSvcFacade {
	return &tokenServiceImpl{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

var _ portssvc.TokenSvcFacade = (*tokenServiceImpl)(nil)

func (s *tokenServiceImpl) GenerateToken(user *domain.User) (string, int, error) {
	now := time.Now()
	claims := middleware.StaffClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.UserID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(s.expiry.Seconds()), nil
}
