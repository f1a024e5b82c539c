// server/internal/api/handlers/auth_handler.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"blood-donation-api-server/internal/api/middleware"
	"blood-donation-api-server/internal/auth"
	"blood-donation-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuthHandler struct {
	DB *mongo.Database
}

type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required,oneof=donor doctor"`

	// Donor
	BloodType      string `json:"bloodType" binding:"omitempty,oneof=A+ A- B+ B- O+ O- AB+ AB-"`
	Status         string `json:"status" binding:"omitempty,oneof=available unavailable"`
	MedicalHistory string `json:"medicalHistory"`

	// Doctor
	Hospital      string `json:"hospital"`
	CNI           string `json:"cni"`
	LicenseNumber string `json:"licenseNumber"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterBloodBankRequest struct {
	HospitalName string `json:"hospitalName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

// Register tạo tài khoản donor hoặc doctor.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Các field bắt buộc theo vai trò
	if req.Role == models.RoleDonor && req.BloodType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bloodType is required for donors"})
		return
	}
	if req.Role == models.RoleDoctor && (req.Hospital == "" || req.CNI == "" || req.LicenseNumber == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hospital, cni and licenseNumber are required for doctors"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collection := h.DB.Collection("users")

	count, err := collection.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for user"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This email is already in use"})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	newUser := models.User{
		Name:      req.Name,
		Email:     email,
		Password:  hashedPassword,
		Phone:     req.Phone,
		Role:      req.Role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if req.Role == models.RoleDonor {
		newUser.BloodType = req.BloodType
		newUser.MedicalHistory = req.MedicalHistory
		newUser.Status = req.Status
		if newUser.Status == "" {
			newUser.Status = models.DonorAvailable
		}
	} else {
		newUser.Hospital = req.Hospital
		newUser.CNI = req.CNI
		newUser.LicenseNumber = req.LicenseNumber
	}

	result, err := collection.InsertOne(context.Background(), newUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newUser.ID = oid
	}

	token, err := auth.GenerateJWT(newUser.ID.Hex(), auth.AccountTypeUser, newUser.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "data": gin.H{"user": newUser}})
}

// Login xác thực donor/doctor bằng email và mật khẩu.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collection := h.DB.Collection("users")

	var user models.User
	err := collection.FindOne(context.Background(), bson.M{"email": email}).Decode(&user)
	if err != nil || !auth.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}

	now := time.Now()
	collection.UpdateOne(context.Background(), bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"lastLogin": now}})
	user.LastLogin = &now

	token, err := auth.GenerateJWT(user.ID.Hex(), auth.AccountTypeUser, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "data": gin.H{"user": user}})
}

// GetProfile trả về hồ sơ của user đang đăng nhập.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil || principal.User == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not a user account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"user": principal.User}})
}

// RegisterBloodBank tạo tài khoản ngân hàng máu với kho rỗng.
func (h *AuthHandler) RegisterBloodBank(c *gin.Context) {
	var req RegisterBloodBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collection := h.DB.Collection("blood_banks")

	count, err := collection.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for blood bank"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This email is already in use"})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	newBank := models.BloodBank{
		HospitalName: req.HospitalName,
		Email:        email,
		Password:     hashedPassword,
		Phone:        req.Phone,
		Address:      req.Address,
		Inventory:    map[string]int{},
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	result, err := collection.InsertOne(context.Background(), newBank)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create blood bank"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newBank.ID = oid
	}

	token, err := auth.GenerateJWT(newBank.ID.Hex(), auth.AccountTypeBloodBank, middleware.RoleBloodBank)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "data": gin.H{"bloodBank": newBank}})
}

// LoginBloodBank xác thực ngân hàng máu.
func (h *AuthHandler) LoginBloodBank(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collection := h.DB.Collection("blood_banks")

	var bank models.BloodBank
	err := collection.FindOne(context.Background(), bson.M{"email": email}).Decode(&bank)
	if err != nil || !auth.CheckPasswordHash(req.Password, bank.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	}

	if !bank.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}

	token, err := auth.GenerateJWT(bank.ID.Hex(), auth.AccountTypeBloodBank, middleware.RoleBloodBank)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "data": gin.H{"bloodBank": bank}})
}

// GetBloodBankProfile trả về hồ sơ ngân hàng máu đang đăng nhập.
func (h *AuthHandler) GetBloodBankProfile(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil || principal.BloodBank == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not a blood bank account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"bloodBank": principal.BloodBank}})
}
