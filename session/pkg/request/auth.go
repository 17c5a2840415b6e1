package request

type Login struct {
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required"       json:"password"`
}

type Register struct {
	Name     string `validate:"required"       json:"name"`
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required,min=8" json:"password"`
}

type ForgotPassword struct {
	Email string `validate:"required,email" json:"email"`
}

type ResetPassword struct {
	Token    string `validate:"required"       json:"token"`
	Password string `validate:"required,min=8" json:"password"`
}

type UpdateTheme struct {
	Theme string `validate:"required,oneof=light dark" json:"theme"`
}
