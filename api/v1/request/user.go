package request

type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DateOfBirth string `json:"dateOfBirth" binding:"required,datetime=2006-01-02"`
	Gender      string `json:"gender" binding:"required,oneof=Male Female Other"`
	PhoneNumber string `json:"phoneNumber" binding:"required,phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UpdateProfileRequest fields are all optional; absent fields stay unchanged.
type UpdateProfileRequest struct {
	Username    string `json:"username" binding:"omitempty,min=3,max=30"`
	Email       string `json:"email" binding:"omitempty,email"`
	DateOfBirth string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,phone"`
}
