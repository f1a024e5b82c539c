// server/internal/auth/auth.go
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Loại tài khoản được mã hoá trong token.
const (
	AccountTypeUser      = "user"      // donor hoặc doctor, collection "users"
	AccountTypeBloodBank = "bloodbank" // collection "blood_banks"
)

// JWTClaims defines the payload for the JWT.
type JWTClaims struct {
	AccountType string `json:"accountType"` // "user" | "bloodbank"
	Role        string `json:"role"`        // "donor" | "doctor" | "bloodbank"
	jwt.RegisteredClaims
}

// Hashing
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// JWT Generation
var (
	JwtSecret = []byte("YOUR_SUPER_SECRET_KEY")
	tokenTTL  = 24 * time.Hour
)

// Configure ghi đè secret và thời hạn token từ config.
// Expiration dùng cú pháp time.ParseDuration, ví dụ "24h", "168h".
func Configure(secret, expiration string) {
	if secret != "" {
		JwtSecret = []byte(secret)
	}
	if expiration != "" {
		if d, err := time.ParseDuration(expiration); err == nil {
			tokenTTL = d
		}
	}
}

// GenerateJWT phát hành token cho một tài khoản. subjectID là hex ObjectID.
func GenerateJWT(subjectID, accountType, role string) (string, error) {
	expirationTime := time.Now().Add(tokenTTL)
	claims := &JWTClaims{
		AccountType: accountType,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtSecret)
}

// ParseToken xác thực chữ ký và hạn của token, trả về claims.
func ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return JwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
