package utils

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Typed verification failures. All map to 401 but carry distinct
// messages so clients can tell an expired session from a bad token.
var (
	ErrTokenMissing = errors.New("no authorization token provided")
	ErrTokenExpired = errors.New("authorization token has expired")
	ErrTokenInvalid = errors.New("invalid authorization token")
)

const tokenTTL = 72 * time.Hour

// Fallback for local development only; never use in production.
const insecureDevSecret = "fixmyzone-insecure-dev-secret"

var warnOnce sync.Once

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		warnOnce.Do(func() {
			log.Println("WARNING: JWT_SECRET is not set, falling back to the insecure development secret")
		})
		return []byte(insecureDevSecret)
	}
	return []byte(secret)
}

// GenerateToken mints a signed token for a given user ID.
func GenerateToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret())
}

// ExtractBearerToken pulls the token out of an Authorization header
// value. A missing header or empty token segment is ErrTokenMissing.
func ExtractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrTokenMissing
	}
	if strings.HasPrefix(header, "Bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	if header == "" {
		return "", ErrTokenMissing
	}
	return header, nil
}

// VerifyToken checks signature and expiry and returns the subject user
// ID, or one of the typed failures above.
func VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrTokenInvalid
	}
	return userID, nil
}
