package domain

import (
	"time"

	"github.com/fayad123/bcards-server/internal/common/constants"
)

type Image struct {
	URL string `json:"url" validate:"required,url"`
	Alt string `json:"alt" validate:"required"`
}

type Address struct {
	State       string `json:"state"`
	Country     string `json:"country" validate:"required,min=2"`
	City        string `json:"city" validate:"required,min=2"`
	Street      string `json:"street" validate:"required,min=2"`
	HouseNumber int    `json:"houseNumber" validate:"required,min=1,max=2147483647"`
	Zip         string `json:"zip"`
}

// Card is a business card. UserID is set once from the creator's claims and
// Likes holds each account id at most once.
type Card struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title" validate:"required"`
	Subtitle    string    `json:"subtitle" validate:"required"`
	Description string    `json:"description"`
	Phone       string    `json:"phone" validate:"required,phone"`
	Email       string    `json:"email" validate:"required,email,min=5"`
	Web         string    `json:"web"`
	Image       Image     `json:"image"`
	Address     Address   `json:"address"`
	BizNumber   int64     `json:"bizNumber"`
	Likes       []string  `json:"likes"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ApplyDefaults fills the address sentinels and normalizes Likes to an empty set.
func (c *Card) ApplyDefaults() {
	if c.Address.State == "" {
		c.Address.State = constants.DefaultCardState
	}
	if c.Address.Zip == "" {
		c.Address.Zip = constants.DefaultCardZip
	}
	if c.Likes == nil {
		c.Likes = []string{}
	}
}

func (c Card) Clone() Card {
	out := c
	out.Likes = append([]string{}, c.Likes...)
	return out
}

func (c Card) LikedBy(accountID string) bool {
	for _, id := range c.Likes {
		if id == accountID {
			return true
		}
	}
	return false
}

// Input is the creation payload. Owner and likes are not accepted from clients.
type Input struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	Web         string  `json:"web"`
	Image       Image   `json:"image"`
	Address     Address `json:"address"`
	BizNumber   int64   `json:"bizNumber"`
}

func (in Input) ToCard() Card {
	return Card{
		Title:       in.Title,
		Subtitle:    in.Subtitle,
		Description: in.Description,
		Phone:       in.Phone,
		Email:       in.Email,
		Web:         in.Web,
		Image:       in.Image,
		Address:     in.Address,
		BizNumber:   in.BizNumber,
	}
}
