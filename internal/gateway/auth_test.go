package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/medcore/fhirstore/internal/fhir/repo"
)

func signToken(t *testing.T, secret []byte, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, authorization string) (*repo.Context, int) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/fhir/R4/Patient", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured *repo.Context
	handler := mw(func(c echo.Context) error {
		captured = securityContext(c)
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	status := rec.Code
	if httpErr, ok := err.(*echo.HTTPError); ok {
		status = httpErr.Code
	}
	return captured, status
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("test-secret")
	mw := JWTAuth(secret, "default")

	t.Run("missing token", func(t *testing.T) {
		_, status := runAuth(t, mw, "")
		if status != http.StatusUnauthorized {
			t.Errorf("status = %d", status)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		_, status := runAuth(t, mw, "Bearer not-a-jwt")
		if status != http.StatusUnauthorized {
			t.Errorf("status = %d", status)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, []byte("other-secret"), &Claims{Project: "t1"})
		_, status := runAuth(t, mw, "Bearer "+token)
		if status != http.StatusUnauthorized {
			t.Errorf("status = %d", status)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, secret, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			Project: "t1",
		})
		_, status := runAuth(t, mw, "Bearer "+token)
		if status != http.StatusUnauthorized {
			t.Errorf("status = %d", status)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, secret, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "Practitioner/123"},
			Project:          "t1",
			Compartments:     []string{"p1"},
			OnBehalfOf:       "Practitioner/456",
		})
		rctx, status := runAuth(t, mw, "Bearer "+token)
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		if rctx.Author != "Practitioner/123" || rctx.Project != "t1" {
			t.Errorf("context = %+v", rctx)
		}
		if len(rctx.Compartments) != 1 || rctx.Compartments[0] != "p1" {
			t.Errorf("compartments = %v", rctx.Compartments)
		}
		if rctx.OnBehalfOf != "Practitioner/456" {
			t.Errorf("onBehalfOf = %q", rctx.OnBehalfOf)
		}
		if rctx.SuperAdmin {
			t.Error("unexpected super admin grant")
		}
	})

	t.Run("missing project falls back to default tenant", func(t *testing.T) {
		token := signToken(t, secret, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "Practitioner/123"},
		})
		rctx, status := runAuth(t, mw, "Bearer "+token)
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		if rctx.Project != "default" {
			t.Errorf("project = %q", rctx.Project)
		}
	})
}

func TestDevAuth(t *testing.T) {
	rctx, status := runAuth(t, DevAuth("default"), "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !rctx.SuperAdmin || rctx.Project != "default" {
		t.Errorf("context = %+v", rctx)
	}
}
