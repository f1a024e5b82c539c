package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"blood-donation-api-server/internal/auth"
	"blood-donation-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setPrincipal(p *Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(principalKey, p)
		c.Next()
	}
}

func TestAuthorizeAllowsMatchingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	doctor := &Principal{
		Kind: auth.AccountTypeUser,
		Role: models.RoleDoctor,
		User: &models.User{ID: primitive.NewObjectID(), Role: models.RoleDoctor, Hospital: "central"},
	}
	router.GET("/only-doctors", setPrincipal(doctor), Authorize(models.RoleDoctor), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/only-doctors", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthorizeRejectsOtherRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	donor := &Principal{
		Kind: auth.AccountTypeUser,
		Role: models.RoleDonor,
		User: &models.User{ID: primitive.NewObjectID(), Role: models.RoleDonor, BloodType: "O-"},
	}
	router.GET("/only-banks", setPrincipal(donor), Authorize(RoleBloodBank), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/only-banks", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPrincipalHospitalID(t *testing.T) {
	doctor := &Principal{
		Kind: auth.AccountTypeUser,
		Role: models.RoleDoctor,
		User: &models.User{Hospital: "central-hospital"},
	}
	assert.Equal(t, "central-hospital", doctor.HospitalID())

	bankID := primitive.NewObjectID()
	bank := &Principal{
		Kind:      auth.AccountTypeBloodBank,
		Role:      RoleBloodBank,
		BloodBank: &models.BloodBank{ID: bankID},
	}
	assert.Equal(t, bankID.Hex(), bank.HospitalID())
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Authenticate(nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsMalformedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Authenticate(nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
