package middleware

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("OTR_JWT_SECRET", "test-jwt-secret-that-is-32-chars!!")
	os.Exit(m.Run())
}
