package model

import "time"

// Gender values accepted on registration and profile update.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"not null;size:30" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null;size:191" json:"email"`
	PasswordHash string    `gorm:"not null;size:100" json:"-"`
	DateOfBirth  time.Time `gorm:"type:date" json:"dateOfBirth"`
	Gender       string    `gorm:"size:10" json:"gender"`
	PhoneNumber  string    `gorm:"size:15" json:"phoneNumber"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
