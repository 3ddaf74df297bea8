package testutil

import (
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/middleware"
	"github.com/kendall-kelly/storefront-api/utils"
)

// MockValidatedClaims builds the claims EnsureValidToken would store for a token
func MockValidatedClaims(subject, role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "https://storefront-test.auth0.com/",
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{Role: role},
	}
}

// MockAuth stands in for middleware.EnsureValidToken. It sets the context exactly
// like the real middleware so the tenant middleware and controllers can run unchanged.
func MockAuth(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, auth0ID)
		c.Set(middleware.ContextAccessToken, accessToken)
		c.Set(middleware.ContextClaims, MockValidatedClaims(auth0ID, role))
		c.Next()
	}
}

// NewTestRouter returns a gin engine in test mode with the custom binding rules registered
func NewTestRouter(t testing.TB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterValidators(); err != nil {
		t.Fatalf("Failed to register validators: %v", err)
	}
	return gin.New()
}
