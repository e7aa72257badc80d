package models

import (
	"gorm.io/gorm"
)

// User is the durable identity record behind every authenticated request.
// The auth subsystem only ever reads it; rows are created by the signup flow.
type User struct {
	gorm.Model
	Email    string `gorm:"column:email;uniqueIndex"`
	Password string `gorm:"column:password" json:"-"`
	FullName string `gorm:"column:full_name"`
	Avatar   string `gorm:"column:avatar"`
}
