package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-vf"

// mockRoleProvider — мок для RoleOverrideProvider.
type mockRoleProvider struct {
	overrides map[string]*string
}

func (m *mockRoleProvider) RoleOverrideByUserID(_ context.Context, keycloakUserID string) (*string, error) {
	if m == nil || m.overrides == nil {
		return nil, nil
	}
	override, ok := m.overrides[keycloakUserID]
	if !ok {
		return nil, nil
	}
	return override, nil
}

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	nB64 := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	eB64 := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   nB64,
				"e":   eB64,
			},
		},
	}

	data, _ := json.Marshal(jwks)
	return data
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestJWTAuth создаёт JWTAuth для тестов.
func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey, roleProvider RoleOverrideProvider) *JWTAuth {
	t.Helper()
	jwksJSON := buildJWKSetJSON(&key.PublicKey, testKeyID)
	kf, err := keyfunc.NewJWKSetJSON(jwksJSON)
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}

	return NewJWTAuthWithKeyfunc(
		kf,
		"https://keycloak.test/realms/vidflow",
		roleProvider,
		[]string{"vidflow-admins"},
		[]string{"vidflow-sales-admins"},
		[]string{"vidflow-staff"},
		testLogger(),
	)
}

// generateUserToken генерирует JWT пользователя.
func generateUserToken(t *testing.T, key *rsa.PrivateKey, sub, username, email string, roles, groups []string, expired bool) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := jwt.MapClaims{
		"sub":                sub,
		"preferred_username": username,
		"email":              email,
		"iss":                "https://keycloak.test/realms/vidflow",
		"exp":                jwt.NewNumericDate(exp),
		"nbf":                jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		"iat":                jwt.NewNumericDate(time.Now()),
	}

	if len(roles) > 0 {
		claims["realm_access"] = map[string]any{
			"roles": roles,
		}
	}
	if len(groups) > 0 {
		claims["groups"] = groups
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tokenStr
}

// --- Тесты JWT Middleware ---

// TestJWTAuth_ValidToken — валидный JWT, claims попадают в контекст.
func TestJWTAuth_ValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("claims не найдены в контексте")
		}

		if claims.Subject != "user-123" {
			t.Errorf("ожидался sub=user-123, получен %s", claims.Subject)
		}
		if claims.PreferredUsername != "ivanov" {
			t.Errorf("ожидался username=ivanov, получен %s", claims.PreferredUsername)
		}
		if claims.Email != "ivanov@test.com" {
			t.Errorf("ожидался email=ivanov@test.com, получен %s", claims.Email)
		}
		if claims.IdpRole != rbac.RoleRealmAdmin {
			t.Errorf("ожидался IdpRole=realm-admin, получен %s", claims.IdpRole)
		}
		if claims.EffectiveRole != rbac.RoleRealmAdmin {
			t.Errorf("ожидался EffectiveRole=realm-admin, получен %s", claims.EffectiveRole)
		}

		w.WriteHeader(http.StatusOK)
	}))

	tokenStr := generateUserToken(t, key, "user-123", "ivanov", "ivanov@test.com",
		nil, []string{"vidflow-admins"}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
}

// TestJWTAuth_MissingToken — отсутствие Authorization header.
func TestJWTAuth_MissingToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_ExpiredToken — просроченный токен.
func TestJWTAuth_ExpiredToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	tokenStr := generateUserToken(t, key, "user-123", "ivanov", "ivanov@test.com",
		nil, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_InvalidFormat — некорректный формат Authorization.
func TestJWTAuth_InvalidFormat(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"no bearer prefix", "token123"},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("ожидался статус 401, получен %d", rec.Code)
			}
		})
	}
}

// TestJWTAuth_WrongIssuer — токен с неверным issuer.
func TestJWTAuth_WrongIssuer(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	exp := time.Now().Add(time.Hour)
	claims := jwt.MapClaims{
		"sub":                "user-123",
		"preferred_username": "ivanov",
		"iss":                "https://other-keycloak.test/realms/other",
		"exp":                jwt.NewNumericDate(exp),
		"nbf":                jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		"iat":                jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_RoleOverride — role override повышает роль.
func TestJWTAuth_RoleOverride(t *testing.T) {
	key := generateTestKey(t)
	salesAdmin := rbac.RoleSalesAdmin
	provider := &mockRoleProvider{
		overrides: map[string]*string{
			"user-viewer": &salesAdmin,
		},
	}
	auth := newTestJWTAuth(t, key, provider)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("claims не найдены")
		}

		// IdpRole = viewer (из группы vidflow-staff)
		if claims.IdpRole != rbac.RoleViewer {
			t.Errorf("ожидался IdpRole=viewer, получен %s", claims.IdpRole)
		}
		// RoleOverride = sales-admin
		if claims.RoleOverride == nil || *claims.RoleOverride != rbac.RoleSalesAdmin {
			t.Error("ожидался RoleOverride=sales-admin")
		}
		// EffectiveRole = max(viewer, sales-admin) = sales-admin
		if claims.EffectiveRole != rbac.RoleSalesAdmin {
			t.Errorf("ожидался EffectiveRole=sales-admin, получен %s", claims.EffectiveRole)
		}

		w.WriteHeader(http.StatusOK)
	}))

	tokenStr := generateUserToken(t, key, "user-viewer", "petrov", "petrov@test.com",
		nil, []string{"vidflow-staff"}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}
}

// TestJWTAuth_RoleOverrideCannotDemote — override не понижает роль.
func TestJWTAuth_RoleOverrideCannotDemote(t *testing.T) {
	key := generateTestKey(t)
	viewer := rbac.RoleViewer
	provider := &mockRoleProvider{
		overrides: map[string]*string{
			"user-admin": &viewer,
		},
	}
	auth := newTestJWTAuth(t, key, provider)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("claims не найдены")
		}

		// IdpRole = realm-admin, RoleOverride = viewer
		// EffectiveRole = max(realm-admin, viewer) = realm-admin (не понижается)
		if claims.EffectiveRole != rbac.RoleRealmAdmin {
			t.Errorf("ожидался EffectiveRole=realm-admin, получен %s", claims.EffectiveRole)
		}

		w.WriteHeader(http.StatusOK)
	}))

	tokenStr := generateUserToken(t, key, "user-admin", "sidorov", "sidorov@test.com",
		nil, []string{"vidflow-admins"}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}
}

// TestJWTAuth_FixedSuperAdmin — фиксированный суперадминистратор получает
// realm-admin независимо от групп.
func TestJWTAuth_FixedSuperAdmin(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("claims не найдены")
		}

		// Группы дают только viewer, но username=admin → realm-admin
		if claims.IdpRole != rbac.RoleViewer {
			t.Errorf("ожидался IdpRole=viewer, получен %s", claims.IdpRole)
		}
		if claims.EffectiveRole != rbac.RoleRealmAdmin {
			t.Errorf("ожидался EffectiveRole=realm-admin, получен %s", claims.EffectiveRole)
		}

		w.WriteHeader(http.StatusOK)
	}))

	tokenStr := generateUserToken(t, key, "user-super", rbac.SuperAdminUsername, "admin@test.com",
		nil, []string{"vidflow-staff"}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}
}

// TestJWTAuth_GroupMapping — маппинг групп в роли.
func TestJWTAuth_GroupMapping(t *testing.T) {
	tests := []struct {
		name         string
		groups       []string
		expectedRole string
	}{
		{"admin group", []string{"vidflow-admins"}, rbac.RoleRealmAdmin},
		{"sales-admin group", []string{"vidflow-sales-admins"}, rbac.RoleSalesAdmin},
		{"staff group", []string{"vidflow-staff"}, rbac.RoleViewer},
		{"all groups", []string{"vidflow-staff", "vidflow-sales-admins", "vidflow-admins"}, rbac.RoleRealmAdmin},
		{"no groups", []string{}, ""},
		{"unknown group", []string{"other-group"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := generateTestKey(t)
			auth := newTestJWTAuth(t, key, nil)

			handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims := ClaimsFromContext(r.Context())
				if claims == nil {
					t.Fatal("claims не найдены")
				}
				if claims.IdpRole != tt.expectedRole {
					t.Errorf("ожидался IdpRole=%q, получен %q", tt.expectedRole, claims.IdpRole)
				}
				w.WriteHeader(http.StatusOK)
			}))

			tokenStr := generateUserToken(t, key, "user-123", "user", "user@test.com",
				nil, tt.groups, false)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			req.Header.Set("Authorization", "Bearer "+tokenStr)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("ожидался статус 200, получен %d", rec.Code)
			}
		})
	}
}

// TestJWTAuth_RolesFromRealmAccess — роли из realm_access при отсутствии групп.
func TestJWTAuth_RolesFromRealmAccess(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("claims не найдены")
		}
		// Без групп, но с realm_access.roles=["sales-admin"] → IdpRole=sales-admin
		if claims.IdpRole != rbac.RoleSalesAdmin {
			t.Errorf("ожидался IdpRole=sales-admin, получен %s", claims.IdpRole)
		}
		w.WriteHeader(http.StatusOK)
	}))

	tokenStr := generateUserToken(t, key, "user-123", "ivanov", "ivanov@test.com",
		[]string{"sales-admin", "default-roles-vidflow"}, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}
}

// --- Тесты RBAC middleware ---

// TestRequireRole_HasRole — пользователь с нужной ролью.
func TestRequireRole_HasRole(t *testing.T) {
	handler := RequireRole(rbac.RoleRealmAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	claims := &AuthClaims{EffectiveRole: rbac.RoleRealmAdmin}
	ctx := context.WithValue(context.Background(), ContextKeyClaims, claims)
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}
}

// TestRequireRole_MissingRole — пользователь без нужной роли.
func TestRequireRole_MissingRole(t *testing.T) {
	handler := RequireRole(rbac.RoleRealmAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	claims := &AuthClaims{EffectiveRole: rbac.RoleSalesAdmin}
	ctx := context.WithValue(context.Background(), ContextKeyClaims, claims)
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("ожидался статус 403, получен %d", rec.Code)
	}
}

// TestRequireRole_NoClaims — отсутствие claims в контексте.
func TestRequireRole_NoClaims(t *testing.T) {
	handler := RequireRole(rbac.RoleRealmAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestRequireSalesAdmin — роль sales-admin или выше.
func TestRequireSalesAdmin(t *testing.T) {
	tests := []struct {
		role         string
		expectedCode int
	}{
		{rbac.RoleRealmAdmin, http.StatusOK},
		{rbac.RoleSalesAdmin, http.StatusOK},
		{rbac.RoleViewer, http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			handler := RequireSalesAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			claims := &AuthClaims{EffectiveRole: tt.role}
			ctx := context.WithValue(context.Background(), ContextKeyClaims, claims)
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("роль %q: ожидался статус %d, получен %d", tt.role, tt.expectedCode, rec.Code)
			}
		})
	}
}

// --- Тесты context helpers ---

// TestClaimsFromContext_Empty — пустой контекст.
func TestClaimsFromContext_Empty(t *testing.T) {
	if claims := ClaimsFromContext(context.Background()); claims != nil {
		t.Errorf("ожидался nil, получено %+v", claims)
	}
}

// TestSubjectFromContext — извлечение subject.
func TestSubjectFromContext(t *testing.T) {
	claims := &AuthClaims{Subject: "user-123"}
	ctx := context.WithValue(context.Background(), ContextKeyClaims, claims)

	if sub := SubjectFromContext(ctx); sub != "user-123" {
		t.Errorf("ожидался user-123, получен %q", sub)
	}
}

// TestEffectiveRoleFromContext_Empty — пустой контекст.
func TestEffectiveRoleFromContext_Empty(t *testing.T) {
	if role := EffectiveRoleFromContext(context.Background()); role != "" {
		t.Errorf("ожидалась пустая строка, получено %q", role)
	}
}

// TestAuthClaims_HasAnyRole — проверка HasAnyRole.
func TestAuthClaims_HasAnyRole(t *testing.T) {
	claims := &AuthClaims{EffectiveRole: rbac.RoleSalesAdmin}

	if !claims.HasAnyRole(rbac.RoleRealmAdmin, rbac.RoleSalesAdmin) {
		t.Error("ожидался HasAnyRole(realm-admin, sales-admin) = true")
	}
	if claims.HasAnyRole(rbac.RoleRealmAdmin) {
		t.Error("ожидался HasAnyRole(realm-admin) = false")
	}
}
