// Package middleware содержит HTTP middleware сервиса CUENTY.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/cuenty/internal/model"
)

type contextKey string

const claimsKey contextKey = "adminClaims"

// RoleAdmin задаёт роль, которую должен содержать токен администратора.
const RoleAdmin = "admin"

const tokenTTL = 24 * time.Hour

// Claims описывает содержимое токена администратора.
type Claims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"usuario"`
	Email    string `json:"correo"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth выпускает и проверяет HS256-токены администраторов.
type AdminAuth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAdminAuth создаёт AdminAuth с указанным секретом подписи.
// С пустым секретом токены не выпускаются и не принимаются.
func NewAdminAuth(secret string) *AdminAuth {
	return &AdminAuth{
		secret: []byte(secret),
		ttl:    tokenTTL,
		now:    time.Now,
	}
}

// Issue выпускает токен для администратора и возвращает время его истечения.
func (a *AdminAuth) Issue(admin *model.Admin) (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, errors.New("admin secret is not configured")
	}

	now := a.now()
	expires := now.Add(a.ttl)

	claims := Claims{
		AdminID:  admin.ID,
		Username: admin.Username,
		Email:    admin.Email,
		Role:     RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify проверяет подпись, алгоритм, срок действия и роль токена.
// Любая ошибка проверки означает отказ.
func (a *AdminAuth) Verify(token string) (*Claims, bool) {
	if len(a.secret) == 0 || token == "" {
		return nil, false
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	if claims.Role != RoleAdmin || claims.AdminID <= 0 {
		return nil, false
	}
	return claims, true
}

// Middleware требует заголовок Authorization: Bearer <token> с действующим токеном
// администратора и кладёт его claims в контекст запроса.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w, "Token no proporcionado")
			return
		}

		claims, ok := a.Verify(token)
		if !ok {
			unauthorized(w, "Token inválido o expirado")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext извлекает claims администратора из контекста запроса.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "No autorizado",
		"message": message,
	})
}
