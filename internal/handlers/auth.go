package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meetman/internal/auth"
	"meetman/internal/database"
	"meetman/internal/models"
	"meetman/internal/utils"
)

// Login authenticates a user against the stored bcrypt hash and issues
// a JWT.
func Login(c *gin.Context) {
	var request models.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("username = ?", request.Username).First(&user).Error; err != nil {
		// Same response for unknown user and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPassword(user.HashedPass, request.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(user.Username, user.IsAdmin)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	now := time.Now()
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		log.WithError(err).Warn("failed to record last login")
	}

	log.WithFields(map[string]interface{}{
		"username": user.Username,
		"ip":       utils.GetRealClientIP(c),
	}).Info("user logged in")

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// GetCurrentUser returns the authenticated user's profile.
func GetCurrentUser(c *gin.Context) {
	username := c.GetString("username")

	var user models.User
	if err := database.GetDB().Where("username = ?", username).First(&user).Error; err != nil {
		handleError(c, http.StatusNotFound, "User not found", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile fields.
func UpdateProfile(c *gin.Context) {
	username := c.GetString("username")

	var request models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		handleError(c, http.StatusNotFound, "User not found", err)
		return
	}

	updates := map[string]interface{}{}
	if request.Name != nil {
		updates["name"] = *request.Name
	}
	if request.Email != nil {
		updates["email"] = *request.Email
	}
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update profile", err)
			return
		}
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword changes the authenticated user's password.
func ChangePassword(c *gin.Context) {
	username := c.GetString("username")

	var request models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		handleError(c, http.StatusNotFound, "User not found", err)
		return
	}

	if !auth.CheckPassword(user.HashedPass, request.CurrentPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hashed, err := auth.HashPassword(request.NewPassword)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}
	if err := db.Model(&user).Update("hashed_pass", hashed).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// ResetPassword emails a temporary password to the given address. The
// response is identical whether or not the address is known, to avoid
// leaking which emails exist.
func ResetPassword(c *gin.Context) {
	var request models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	response := gin.H{"message": "If the address is registered, a reset email has been sent"}

	db := database.GetDB()
	var user models.User
	if err := db.Where("email = ?", request.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, response)
		return
	}

	tempPassword, err := auth.GenerateTempPassword()
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reset password", err)
		return
	}
	hashed, err := auth.HashPassword(tempPassword)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reset password", err)
		return
	}
	if err := db.Model(&user).Update("hashed_pass", hashed).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reset password", err)
		return
	}

	if err := emailService.SendPasswordResetEmail(user.Email, user.Name, tempPassword); err != nil {
		log.WithError(err).Error("failed to send password reset email")
	}

	c.JSON(http.StatusOK, response)
}

// Logout exists for API symmetry; tokens are stateless and simply
// expire.
func Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
