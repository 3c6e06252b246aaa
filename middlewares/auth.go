package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/recipebox/models"
)

// SessionCookie holds the signed session token.
const SessionCookie = "recipebox_session"

type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type ContextKey string

const (
	userContextKey ContextKey = "user"
)

// ParseSessionToken verifies an HS256 session token and returns the identity
// it carries.
func ParseSessionToken(secret []byte, tokenStr string) (models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid || claims.Username == "" {
		return models.Identity{}, errors.New("invalid session token")
	}
	return models.Identity{Username: claims.Username, Email: claims.Email}, nil
}

// Session resolves the session cookie, if any, into an identity on the
// request context. Requests without a valid session pass through anonymous.
func Session(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := ParseSessionToken(secret, cookie.Value)
			if err != nil {
				logrus.WithError(err).Debug("ignoring session cookie")
				ClearSession(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser sends anonymous visitors back to the landing page.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetAuthenticatedUser(r); !ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetAuthenticatedUser(r *http.Request) (models.Identity, bool) {
	identity, ok := r.Context().Value(userContextKey).(models.Identity)
	return identity, ok
}

// WithUser is used by tests and by login to act as identity for the rest of
// the request.
func WithUser(r *http.Request, identity models.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, identity))
}

func SetSession(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
	})
}

func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
