package service

import (
	"github.com/fayad123/bcards-server/internal/account/domain"
)

type RegisterInput struct {
	Name       domain.Name    `json:"name"`
	IsBusiness *bool          `json:"isBusiness" validate:"required"`
	IsAdmin    bool           `json:"isAdmin"`
	Phone      string         `json:"phone" validate:"required,phone"`
	Email      string         `json:"email" validate:"required,email"`
	Password   string         `json:"password" validate:"required,min=8,max=20"`
	Address    domain.Address `json:"address"`
	Image      *domain.Image  `json:"image"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
