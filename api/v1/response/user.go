package response

import "blogapi/model"

// UserSummary is the public view of a user. It never carries the password
// hash.
type UserSummary struct {
	ID          uint64 `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	PhoneNumber string `json:"phoneNumber"`
}

func NewUserSummary(u *model.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DateOfBirth: u.DateOfBirth.Format("2006-01-02"),
		Gender:      u.Gender,
		PhoneNumber: u.PhoneNumber,
	}
}
