package auth

type signInForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotForm struct {
	Email string `json:"email" validate:"required,email"`
}

type resetForm struct {
	AccessToken string `json:"access_token" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	Confirm     string `json:"confirm" validate:"required"`
}

type changePasswordForm struct {
	Current string
	Next    string
	Confirm string
}

type adminResetForm struct {
	UserID      string `validate:"required"`
	NewPassword string `validate:"required"`
}
