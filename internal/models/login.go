package models

// LoginForm is the login page form.
type LoginForm struct {
	Account  string `json:"account" form:"account" binding:"required"`
	Password string `json:"password" form:"password" binding:"required,min=4"`
}
