package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aetheria-app/aetheria/internal/auth"
	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/locale"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
	"github.com/aetheria-app/aetheria/internal/pkg/utils"
)

const (
	// IdentityKey is the context key for the resolved identity
	IdentityKey ContextKey = "identity"
	// EmailKey is the context key for the account email
	EmailKey ContextKey = "email"
	// LocaleKey is the context key for the negotiated locale
	LocaleKey ContextKey = "locale"

	// SessionKeyHeader carries the client-generated app-session key.
	SessionKeyHeader = "X-Session-Key"
)

func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

func withClaims(r *http.Request, claims *auth.Claims) *http.Request {
	identity := profile.Classify(claims.UserID)
	if claims.Guest {
		identity = profile.Identity{ID: profile.GuestID, Class: profile.ClassGuest}
	}
	ctx := context.WithValue(r.Context(), IdentityKey, identity)
	ctx = context.WithValue(ctx, EmailKey, claims.Email)
	return r.WithContext(ctx)
}

// Auth returns a middleware that requires a valid JWT. Guest tokens pass:
// the entitlement gate, not the transport, decides what a guest may do.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			r = withClaims(r, claims)
			identity, _ := GetIdentity(r)
			AddLogField(w, "identity_id", identity.ID)

			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth resolves a JWT when present but lets anonymous requests
// through. The horoscope flow starts before any account exists.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr := tokenFromRequest(r); tokenStr != "" {
				if claims, err := auth.ParseClaims(tokenStr, jwtSecret); err == nil {
					r = withClaims(r, claims)
					identity, _ := GetIdentity(r)
					AddLogField(w, "identity_id", identity.ID)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Locale returns a middleware that negotiates the response language from
// Accept-Language, falling back to the configured default.
func Locale(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := r.Header.Get("Accept-Language")
			if tag == "" {
				tag = defaultLocale
			}
			ctx := context.WithValue(r.Context(), LocaleKey, locale.Normalize(tag))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the resolved identity from the request context.
// Requests that never passed auth middleware resolve as anonymous.
func GetIdentity(r *http.Request) (profile.Identity, bool) {
	identity, ok := r.Context().Value(IdentityKey).(profile.Identity)
	if !ok {
		return profile.Classify(""), false
	}
	return identity, true
}

// GetEmail extracts the account email from the request context
func GetEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(EmailKey).(string)
	return email, ok
}

// GetLocale extracts the negotiated locale from the request context
func GetLocale(r *http.Request) locale.Locale {
	if l, ok := r.Context().Value(LocaleKey).(locale.Locale); ok {
		return l
	}
	return locale.RU
}

// GetSessionKey extracts the client app-session key from the request.
func GetSessionKey(r *http.Request) string {
	return r.Header.Get(SessionKeyHeader)
}
