package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProviderGmail  = "gmail"
	ProviderFitbit = "fitbit"
)

// OAuthConnection is a third-party account linked by an administrator.
// Tokens are stored encrypted.
type OAuthConnection struct {
	gorm.Model
	Provider     string    `gorm:"uniqueIndex;not null" json:"provider"`
	AccountEmail string    `json:"account_email"`
	Scopes       string    `json:"scopes"` // space separated
	AccessToken  []byte    `json:"-"`
	RefreshToken []byte    `json:"-"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	ConnectedBy  uint      `json:"connected_by"`
}

type OAuthState struct {
	State     string    `gorm:"primaryKey" json:"state"`
	Provider  string    `gorm:"not null" json:"provider"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
