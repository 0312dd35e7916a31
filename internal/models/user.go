// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username           string     `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email              string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash       string     `json:"-" gorm:"size:255;not null"`
	Role               UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'client'"`
	FirstName          string     `json:"first_name" gorm:"size:150"`
	LastName           string     `json:"last_name" gorm:"size:150"`
	Cedula             *string    `json:"cedula" gorm:"size:20"`
	Telefono           *string    `json:"telefono" gorm:"size:20"`
	FechaNacimiento    *time.Time `json:"fecha_nacimiento" gorm:"type:date"`
	IsActive           bool       `json:"-" gorm:"not null;default:true"`
	ResetCode          *string    `json:"-" gorm:"size:10"`
	ResetCodeCreatedAt *time.Time `json:"-"`
	LastLoginAt        *time.Time `json:"last_login_at"`

	// Relationships
	Businesses []Business `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// RevokedToken blacklists a refresh token by its jti until it would have expired anyway.
type RevokedToken struct {
	BaseModel
	JTI       string    `json:"jti" gorm:"column:jti;uniqueIndex;size:64;not null"`
	UserID    uint      `json:"user_id" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}
