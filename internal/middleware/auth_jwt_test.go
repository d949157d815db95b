package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func mintToken(t *testing.T, secret string, claims TokenClaims) string {
	t.Helper()
	token, err := SignJWT(secret, claims)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func TestSignVerifyRoundTrip(t *testing.T) {
	claims := TokenClaims{
		Sub:         "U1234567890",
		DisplayName: "Nok",
		Locale:      "th",
		Exp:         time.Now().Add(time.Hour).Unix(),
		Issuer:      "stickerline",
	}
	token := mintToken(t, testSecret, claims)

	got, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if got.Sub != claims.Sub || got.DisplayName != claims.DisplayName || got.Locale != claims.Locale || got.Issuer != claims.Issuer {
		t.Fatalf("claims = %+v", got)
	}
}

func TestVerifyJWTRejectsBadTokens(t *testing.T) {
	valid := mintToken(t, testSecret, TokenClaims{Sub: "U1", Exp: time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other-secret", valid},
		{"tampered signature", testSecret, valid + "x"},
		{"not a jwt", testSecret, "only.two"},
		{"expired", testSecret, mintToken(t, testSecret, TokenClaims{Sub: "U1", Exp: time.Now().Add(-time.Minute).Unix()})},
	}
	for _, tt := range tests {
		if _, err := VerifyJWT(tt.secret, tt.token); err == nil {
			t.Errorf("%s: VerifyJWT accepted the token", tt.name)
		}
	}
}

func TestAuthJWTMiddleware(t *testing.T) {
	var gotUserID, gotLocale string
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotLocale = LocaleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token := mintToken(t, testSecret, TokenClaims{Sub: "U42", Locale: "en", Exp: time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/current", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}

	if gotUserID != "U42" {
		t.Fatalf("user id in context = %q", gotUserID)
	}
	if gotLocale != "en" {
		t.Fatalf("locale from claims = %q", gotLocale)
	}
}
