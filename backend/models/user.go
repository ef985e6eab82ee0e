package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

type User struct {
	gorm.Model
	Email        string  `gorm:"unique;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Role         string  `gorm:"default:client" json:"role"` // client, admin
	Client       *Client `json:"client,omitempty"`
}

type Client struct {
	gorm.Model
	UserID     *uint                           `gorm:"uniqueIndex" json:"user_id"`
	FirstName  string                          `gorm:"not null" json:"first_name"`
	LastName   string                          `json:"last_name"`
	Email      string                          `gorm:"index" json:"email"`
	Phone      string                          `json:"phone"`
	Contact    datatypes.JSONType[ContactInfo] `json:"contact"`
	Enrolments []ProgrammeEnrolment            `json:"enrolments,omitempty"`
}

func (c Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
