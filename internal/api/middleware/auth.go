// server/internal/api/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"blood-donation-api-server/internal/auth"
	"blood-donation-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Vai trò dành riêng cho ngân hàng máu (users chỉ có donor/doctor).
const RoleBloodBank = "bloodbank"

const principalKey = "principal"

// Principal là tagged union cho danh tính đã xác thực: đúng một trong
// User (donor/doctor) hoặc BloodBank khác nil, tuỳ theo Kind.
// Middleware resolve một lần tại đây, handler không phải đoán kiểu nữa.
type Principal struct {
	Kind      string // "user" | "bloodbank"
	Role      string // "donor" | "doctor" | "bloodbank"
	User      *models.User
	BloodBank *models.BloodBank
}

// ID trả về ObjectID của tài khoản, bất kể loại nào.
func (p *Principal) ID() primitive.ObjectID {
	if p.Kind == auth.AccountTypeBloodBank {
		return p.BloodBank.ID
	}
	return p.User.ID
}

// HospitalID trả về phạm vi bệnh viện của principal: doctor dùng trường
// hospital trong hồ sơ, ngân hàng máu dùng chính ID của nó.
func (p *Principal) HospitalID() string {
	if p.Kind == auth.AccountTypeBloodBank {
		return p.BloodBank.ID.Hex()
	}
	return p.User.Hospital
}

// GetPrincipal lấy principal đã được Authenticate đặt vào context.
func GetPrincipal(c *gin.Context) *Principal {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	p, ok := v.(*Principal)
	if !ok {
		return nil
	}
	return p
}

// Authenticate là middleware xác thực token JWT.
// Nó kiểm tra tính hợp lệ của token, load tài khoản từ MongoDB và đưa
// một Principal duy nhất vào context của request.
func Authenticate(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := auth.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		principal, err := resolvePrincipal(c.Request.Context(), db, claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account not found or deactivated"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func resolvePrincipal(ctx context.Context, db *mongo.Database, claims *auth.JWTClaims) (*Principal, error) {
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, err
	}

	if claims.AccountType == auth.AccountTypeBloodBank {
		var bank models.BloodBank
		err := db.Collection("blood_banks").FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&bank)
		if err != nil {
			return nil, err
		}
		return &Principal{Kind: auth.AccountTypeBloodBank, Role: RoleBloodBank, BloodBank: &bank}, nil
	}

	var user models.User
	err = db.Collection("users").FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &Principal{Kind: auth.AccountTypeUser, Role: user.Role, User: &user}, nil
}

// Authorize là một middleware factory để kiểm tra vai trò của người dùng.
// Nó nhận vào một danh sách các vai trò được phép và trả về một middleware.
func Authorize(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			// Lỗi này không nên xảy ra nếu Authenticate được gọi trước
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Principal not found in context"})
			return
		}

		for _, role := range allowedRoles {
			if role == principal.Role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}
