package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const TokenLifetime = 7 * 24 * time.Hour

type Auth struct {
	Secret string
}

func SetupAuth(s string) Auth {
	return Auth{
		Secret: s,
	}
}

func (a Auth) GenerateToken(utorid, role string) (string, time.Time, error) {
	if utorid == "" {
		return "", time.Time{}, errors.New("required inputs are missing to generate token")
	}

	now := time.Now()
	exp := now.Add(TokenLifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"utorid": utorid,
		"role":   role,
		"iat":    now.Unix(),
		"exp":    exp.Unix(),
	})

	tokenStr, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", time.Time{}, errors.New("unable to sign the token")
	}

	return tokenStr, exp, nil
}

func (a Auth) VerifyToken(tokenString string) (dto.AuthClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return dto.AuthClaims{}, errors.New("missing token")
	}

	// support both:
	// - "Bearer <token>"
	// - "<token>"
	if strings.HasPrefix(strings.ToLower(tokenString), "bearer ") {
		parts := strings.SplitN(tokenString, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			return dto.AuthClaims{}, errors.New("invalid token format")
		}
		tokenString = strings.TrimSpace(parts[1])
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.Secret), nil
	})
	if err != nil {
		return dto.AuthClaims{}, errors.New("token parse error")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return dto.AuthClaims{}, errors.New("invalid token claims")
	}

	expAny, ok := claims["exp"]
	if !ok {
		return dto.AuthClaims{}, errors.New("missing expiry")
	}
	expFloat, ok := expAny.(float64)
	if !ok {
		return dto.AuthClaims{}, errors.New("invalid expiry type")
	}
	if float64(time.Now().Unix()) > expFloat {
		return dto.AuthClaims{}, errors.New("token expired")
	}

	utorid, _ := claims["utorid"].(string)
	if utorid == "" {
		return dto.AuthClaims{}, errors.New("invalid token claims")
	}
	role, _ := claims["role"].(string)
	iat, _ := claims["iat"].(float64)

	return dto.AuthClaims{
		Utorid: utorid,
		Role:   role,
		Expiry: expFloat,
		Iat:    iat,
	}, nil
}

func (a Auth) GetCurrentClaims(ctx *fiber.Ctx) (dto.AuthClaims, error) {
	u := ctx.Locals("claims")
	claims, ok := u.(dto.AuthClaims)
	if !ok {
		return dto.AuthClaims{}, errors.New("missing auth claims in context")
	}
	return claims, nil
}

func (a Auth) VerifyPassword(plain, hashed string) error {
	if err := bcrypt.CompareHashAndPassword(
		[]byte(hashed),
		[]byte(plain),
	); err != nil {
		return errors.New("invalid utorid or password")
	}
	return nil
}

func (a Auth) HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("unable to hash password")
	}
	return string(hashed), nil
}
