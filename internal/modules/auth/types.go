package auth

import "errors"

type RegisterDTO struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type LoginDTO struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

var (
	errInvalidEmail     = errors.New("valid email is required")
	errPasswordTooShort = errors.New("password must be at least 6 characters long")
	errEmailTaken       = errors.New("email is already registered")
	errUserNotFound     = errors.New("user not found")
	errWrongPassword    = errors.New("wrong password")
)
