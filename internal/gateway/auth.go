// Package gateway exposes the resource store over a FHIR-style REST surface.
package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/medcore/fhirstore/internal/fhir/repo"
)

const securityContextKey = "security_context"

// Claims is the JWT payload the gateway understands. The subject is the
// caller's author reference, e.g. "Practitioner/123".
type Claims struct {
	jwt.RegisteredClaims
	Project      string   `json:"project"`
	Compartments []string `json:"compartments,omitempty"`
	SuperAdmin   bool     `json:"super_admin,omitempty"`
	ProjectAdmin bool     `json:"project_admin,omitempty"`
	OnBehalfOf   string   `json:"on_behalf_of,omitempty"`
}

// JWTAuth validates HMAC-signed bearer tokens and derives the security
// context every repository call runs under.
func JWTAuth(secret []byte, defaultTenant string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !parsed.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			project := claims.Project
			if project == "" {
				project = defaultTenant
			}
			c.Set(securityContextKey, &repo.Context{
				Author:       claims.Subject,
				OnBehalfOf:   claims.OnBehalfOf,
				Project:      project,
				Compartments: claims.Compartments,
				SuperAdmin:   claims.SuperAdmin,
				ProjectAdmin: claims.ProjectAdmin,
			})
			return next(c)
		}
	}
}

// DevAuth grants every request a super-admin context in the default tenant.
// Development only.
func DevAuth(defaultTenant string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(securityContextKey, &repo.Context{
				Author:     "Practitioner/dev",
				Project:    defaultTenant,
				SuperAdmin: true,
			})
			return next(c)
		}
	}
}

func securityContext(c echo.Context) *repo.Context {
	if rctx, ok := c.Get(securityContextKey).(*repo.Context); ok {
		return rctx
	}
	return &repo.Context{}
}
