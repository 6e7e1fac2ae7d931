package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// AdminIssuer is the issuer of every admin token.
const AdminIssuer = "donasi"

// MinSecretLength is the shortest HS256 secret accepted.
const MinSecretLength = 32

var ErrWeakSecret = errors.New("admin secret must be at least 32 bytes")

type AdminClaims struct {
	jwt.Claims
	Role string `json:"role"`
}

type adminKey struct{}

// SignAdminToken mints an HS256 admin token for subject valid for ttl.
func SignAdminToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) < MinSecretLength {
		return "", ErrWeakSecret
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(secret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", err
	}
	claims := AdminClaims{
		Claims: jwt.Claims{
			Issuer:   AdminIssuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: "admin",
	}
	return jwt.Signed(signer).Claims(claims).Serialize()
}

// VerifyAdminToken checks signature, issuer, expiry and role.
func VerifyAdminToken(secret, token string, now time.Time) (*AdminClaims, error) {
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, err
	}
	var claims AdminClaims
	if err := parsed.Claims([]byte(secret), &claims); err != nil {
		return nil, err
	}
	if err := claims.ValidateWithLeeway(jwt.Expected{Issuer: AdminIssuer, Time: now}, time.Minute); err != nil {
		return nil, err
	}
	if claims.Expiry == nil {
		return nil, errors.New("token has no expiry")
	}
	if claims.Role != "admin" {
		return nil, errors.New("token is not an admin token")
	}
	return &claims, nil
}

// AdminGuard requires a valid admin bearer token. With an empty secret the
// guard is disabled and requests pass through.
func AdminGuard(secret string, deny http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				deny(w, r)
				return
			}
			claims, err := VerifyAdminToken(secret, strings.TrimSpace(token), time.Now())
			if err != nil {
				deny(w, r)
				return
			}
			annotate(r, "admin", claims.Subject)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey{}, claims.Subject)))
		})
	}
}

// AdminFromContext returns the subject of the verified admin token.
func AdminFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(adminKey{}).(string); ok {
		return v
	}
	return ""
}
