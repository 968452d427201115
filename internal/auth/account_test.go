package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/fieldsight/internal/models"
)

const testSecret = "test-secret"

func newTestRouter(secret string) (*gin.Engine, *models.Account) {
	gin.SetMode(gin.TestMode)
	var seen models.Account

	r := gin.New()
	r.Use(AccountMiddleware(secret))
	r.GET("/whoami", func(c *gin.Context) {
		seen = AccountFrom(c)
		c.JSON(http.StatusOK, seen)
	})
	r.GET("/private", RequireRegistered(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := IssueToken(testSecret, time.Hour, "user-7", "u7@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	account, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if account.Kind != models.AccountKindRegistered {
		t.Fatalf("expected registered account, got %s", account.Kind)
	}
	if account.ID != "user-7" || account.Email != "u7@example.com" {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(testSecret, time.Hour, "user-7", "")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestMiddlewareResolvesRegisteredAccount(t *testing.T) {
	r, seen := newTestRouter(testSecret)

	token, err := IssueToken(testSecret, time.Hour, "user-9", "u9@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if seen.Kind != models.AccountKindRegistered || seen.ID != "user-9" {
		t.Fatalf("unexpected account: %+v", seen)
	}
}

func TestMiddlewareFallsBackToGuest(t *testing.T) {
	r, seen := newTestRouter(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !seen.IsGuest() {
		t.Fatalf("expected guest account, got %+v", seen)
	}
	if seen.ID == "" {
		t.Fatal("guest accounts need an ephemeral id")
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	r, _ := newTestRouter(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRequireRegisteredDeniesGuests(t *testing.T) {
	r, _ := newTestRouter(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for guest, got %d", resp.Code)
	}
}
