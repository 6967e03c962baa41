package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Gender enum
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User carries the credentials and role of an account. Personal details
// live in the Profile value object embedded in Patient and Doctor rows.
type User struct {
	BaseModel
	Email       string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string     `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Role        Role       `gorm:"size:20;default:'patient'" json:"role"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`

	// Relations (not always preloaded)
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	Patient       *Patient       `gorm:"foreignKey:UserID" json:"-"`
	Doctor        *Doctor        `gorm:"foreignKey:UserID" json:"-"`
}

// Profile holds the personal details shared by patients and doctors.
// Embedded rather than inherited so each record owns its own copy.
type Profile struct {
	FirstName      string     `gorm:"size:50;not null" json:"firstName"`
	LastName       string     `gorm:"size:50;not null" json:"lastName"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Gender         Gender     `gorm:"size:10" json:"gender,omitempty"`
	PhoneNumber    string     `gorm:"size:20" json:"phoneNumber,omitempty"`
	Address        string     `gorm:"size:500" json:"address,omitempty"`
	ProfilePicture string     `gorm:"size:500" json:"profilePicture,omitempty"`
}

// FullName returns the display name for the profile.
func (p Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age computes the profile's age in whole years as of today.
func (p Profile) Age() int {
	if p.DateOfBirth == nil {
		return 0
	}
	now := time.Now()
	age := now.Year() - p.DateOfBirth.Year()
	if now.YearDay() < p.DateOfBirth.YearDay() {
		age--
	}
	return age
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
