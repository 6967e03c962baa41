package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medipredict-server/internal/config"
	"medipredict-server/internal/middleware"
	"medipredict-server/internal/models"
	"medipredict-server/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg}
}

// RegisterRequest represents the request body for user registration.
// Doctors register with their professional details and start out
// unverified; admins are created through the admin surface only.
type RegisterRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        string `json:"role" binding:"required,oneof=patient doctor"`
	PhoneNumber string `json:"phoneNumber"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
	Gender      string `json:"gender" binding:"omitempty,oneof=male female other"`

	// Doctor-only fields
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"licenseNumber"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return // Error response handled by BindAndValidate
	}

	role := models.Role(req.Role)
	if role == models.RoleDoctor && (req.Specialization == "" || req.LicenseNumber == "") {
		utils.BadRequest(c, "Doctor registration requires specialization and license number")
		return
	}

	// Check if user already exists
	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.BadRequest(c, "User with this email already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	profile := models.Profile{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Gender:      models.Gender(req.Gender),
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			utils.BadRequest(c, "Invalid dateOfBirth, expected YYYY-MM-DD")
			return
		}
		profile.DateOfBirth = &dob
	}

	user := models.User{
		Email:    req.Email,
		Role:     role,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		switch role {
		case models.RolePatient:
			patient := models.Patient{UserID: user.ID, Profile: profile}
			return tx.Create(&patient).Error
		case models.RoleDoctor:
			doctor := models.Doctor{
				UserID:         user.ID,
				Profile:        profile,
				Specialization: req.Specialization,
				LicenseNumber:  req.LicenseNumber,
				IsVerified:     false,
			}
			return tx.Create(&doctor).Error
		}
		return nil
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to create user: "+err.Error())
		return
	}

	utils.Created(c, "User registered successfully", user.Sanitize())
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Unauthorized(c, "Invalid email or password")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !user.IsActive {
		utils.Forbidden(c, "This account has been deactivated")
		return
	}
	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	accessToken, refreshTokenString, err := utils.GenerateTokens(&user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return
	}
	// Store refresh token in DB
	refreshToken := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
		IsRevoked: false,
	}
	if err := h.DB.Create(&refreshToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to store refresh token: "+err.Error())
		return
	}

	now := time.Now()
	h.DB.Model(&user).Update("last_login_at", &now)

	// Set refresh token as HTTP-only cookie
	c.SetCookie(
		"refresh_token",
		refreshTokenString,
		h.Cfg.JWTRefreshExpirationHours*60*60, // Max age in seconds
		"/",
		"", // Domain (empty means current domain)
		h.Cfg.Environment != "development",
		true, // HTTP only
	)

	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenString, // Still include in response for non-browser clients
		User:         user.Sanitize(),
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles refreshing an access token using a refresh token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// First try to get the refresh token from HTTP-only cookie
	refreshTokenFromCookie, err := c.Cookie("refresh_token")

	// If no cookie, fall back to request body
	if err != nil || refreshTokenFromCookie == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		refreshTokenFromCookie = req.RefreshToken
	}

	// Validate the token regardless of source
	claims, err := utils.ValidateToken(refreshTokenFromCookie, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token structure or signature: "+err.Error())
		return
	}
	// Check if refresh token is revoked or still valid in DB
	var storedToken models.RefreshToken
	if err := h.DB.Where("token = ? AND user_id = ? AND is_revoked = ? AND expires_at > ?", refreshTokenFromCookie, claims.UserID, false, time.Now()).First(&storedToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		} else {
			utils.InternalServerError(c, "Database error checking refresh token: "+err.Error())
		}
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		utils.InternalServerError(c, "Failed to find user associated with token: "+err.Error())
		return
	}

	// Refresh token rotation: revoke the old token, issue a new pair.
	storedToken.IsRevoked = true
	h.DB.Save(&storedToken)

	newAccessToken, newRefreshTokenString, err := utils.GenerateTokens(&user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate new tokens: "+err.Error())
		return
	}

	newRefreshToken := models.RefreshToken{
		UserID:    user.ID,
		Token:     newRefreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
		IsRevoked: false,
	}
	if err := h.DB.Create(&newRefreshToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to store new refresh token: "+err.Error())
		return
	}

	c.SetCookie(
		"refresh_token",
		newRefreshTokenString,
		h.Cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)

	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshTokenString,
	})
}

// LogoutRequest represents the request body for user logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout revokes the presented refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie("refresh_token")
	if token == "" {
		var req LogoutRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		utils.BadRequest(c, "Refresh token is required")
		return
	}

	var storedToken models.RefreshToken
	if err := h.DB.Where("token = ? AND is_revoked = ?", token, false).First(&storedToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Token not found or already revoked, which is acceptable for logout.
			utils.Success(c, "Logout successful (token not found or already invalid).", nil)
		} else {
			utils.InternalServerError(c, "Database error during logout: "+err.Error())
		}
		return
	}

	storedToken.IsRevoked = true
	storedToken.ExpiresAt = time.Now()
	if err := h.DB.Save(&storedToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}

	c.SetCookie("refresh_token", "", -1, "/", "", h.Cfg.Environment != "development", true)

	utils.Success(c, "Logout successful. Refresh token has been invalidated.", nil)
}

// ProfileResponse pairs the account with its role-specific profile row.
type ProfileResponse struct {
	User    models.UserSanitized `json:"user"`
	Patient *models.Patient      `json:"patient,omitempty"`
	Doctor  *models.Doctor       `json:"doctor,omitempty"`
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	resp := ProfileResponse{User: user.Sanitize()}
	switch user.Role {
	case models.RolePatient:
		var patient models.Patient
		if err := h.DB.First(&patient, "user_id = ?", user.ID).Error; err == nil {
			resp.Patient = &patient
		}
	case models.RoleDoctor:
		var doctor models.Doctor
		if err := h.DB.First(&doctor, "user_id = ?", user.ID).Error; err == nil {
			resp.Doctor = &doctor
		}
	}

	utils.Success(c, "Profile fetched successfully", resp)
}

// UpdateProfileRequest represents the request body for updating user profile.
type UpdateProfileRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Gender      string `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD

	// Patient-only fields
	BloodGroup       string `json:"bloodGroup"`
	Allergies        string `json:"allergies"`
	EmergencyContact string `json:"emergencyContact"`
	EmergencyPhone   string `json:"emergencyPhone"`

	// Doctor-only fields
	Bio               string `json:"bio"`
	Qualifications    string `json:"qualifications"`
	ProfessionalTitle string `json:"professionalTitle"`
}

// UpdateProfile handles updating the currently authenticated user's profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	applyProfile := func(p *models.Profile) error {
		if req.FirstName != "" {
			p.FirstName = req.FirstName
		}
		if req.LastName != "" {
			p.LastName = req.LastName
		}
		if req.PhoneNumber != "" {
			p.PhoneNumber = req.PhoneNumber
		}
		if req.Address != "" {
			p.Address = req.Address
		}
		if req.Gender != "" {
			p.Gender = models.Gender(req.Gender)
		}
		if req.DateOfBirth != "" {
			dob, err := time.Parse("2006-01-02", req.DateOfBirth)
			if err != nil {
				return err
			}
			p.DateOfBirth = &dob
		}
		return nil
	}

	switch user.Role {
	case models.RolePatient:
		var patient models.Patient
		if err := h.DB.First(&patient, "user_id = ?", user.ID).Error; err != nil {
			utils.NotFound(c, "Patient profile not found")
			return
		}
		if err := applyProfile(&patient.Profile); err != nil {
			utils.BadRequest(c, "Invalid dateOfBirth, expected YYYY-MM-DD")
			return
		}
		if req.BloodGroup != "" {
			patient.BloodGroup = req.BloodGroup
		}
		if req.Allergies != "" {
			patient.Allergies = req.Allergies
		}
		if req.EmergencyContact != "" {
			patient.EmergencyContact = req.EmergencyContact
		}
		if req.EmergencyPhone != "" {
			patient.EmergencyPhone = req.EmergencyPhone
		}
		if err := h.DB.Save(&patient).Error; err != nil {
			utils.InternalServerError(c, "Failed to update profile: "+err.Error())
			return
		}
		utils.Success(c, "Profile updated successfully", patient)

	case models.RoleDoctor:
		var doctor models.Doctor
		if err := h.DB.First(&doctor, "user_id = ?", user.ID).Error; err != nil {
			utils.NotFound(c, "Doctor profile not found")
			return
		}
		if err := applyProfile(&doctor.Profile); err != nil {
			utils.BadRequest(c, "Invalid dateOfBirth, expected YYYY-MM-DD")
			return
		}
		if req.Bio != "" {
			doctor.Bio = req.Bio
		}
		if req.Qualifications != "" {
			doctor.Qualifications = req.Qualifications
		}
		if req.ProfessionalTitle != "" {
			doctor.ProfessionalTitle = req.ProfessionalTitle
		}
		if err := h.DB.Save(&doctor).Error; err != nil {
			utils.InternalServerError(c, "Failed to update profile: "+err.Error())
			return
		}
		utils.Success(c, "Profile updated successfully", doctor)

	default:
		utils.Success(c, "Profile fetched successfully", user.Sanitize())
	}
}
