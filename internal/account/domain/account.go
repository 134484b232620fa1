package domain

import "time"

type Name struct {
	First  string `json:"first" validate:"required,min=2"`
	Middle string `json:"middle"`
	Last   string `json:"last" validate:"required,min=1"`
}

type Address struct {
	State       string `json:"state" validate:"omitempty,min=2"`
	Country     string `json:"country" validate:"required,min=2"`
	City        string `json:"city" validate:"required,min=2"`
	Street      string `json:"street" validate:"required,min=2"`
	HouseNumber int    `json:"houseNumber" validate:"required,min=1,max=2147483647"`
	Zip         int    `json:"zip" validate:"required,min=1,max=2147483647"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Account is the stored record. PasswordHash never leaves the service layer;
// outward responses use View.
type Account struct {
	ID           string      `json:"_id"`
	Name         Name        `json:"name"`
	IsBusiness   bool        `json:"isBusiness"`
	IsAdmin      bool        `json:"isAdmin"`
	Phone        string      `json:"phone" validate:"required,phone"`
	Email        string      `json:"email" validate:"required,email"`
	PasswordHash string      `json:"-"`
	Address      Address     `json:"address"`
	Image        Image       `json:"image"`
	LoginStamps  []time.Time `json:"loginStamp"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type View struct {
	ID          string      `json:"_id"`
	Name        Name        `json:"name"`
	IsBusiness  bool        `json:"isBusiness"`
	IsAdmin     bool        `json:"isAdmin"`
	Phone       string      `json:"phone"`
	Email       string      `json:"email"`
	Address     Address     `json:"address"`
	Image       Image       `json:"image"`
	LoginStamps []time.Time `json:"loginStamp"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (a Account) View() View {
	stamps := a.LoginStamps
	if stamps == nil {
		stamps = []time.Time{}
	}
	return View{
		ID:          a.ID,
		Name:        a.Name,
		IsBusiness:  a.IsBusiness,
		IsAdmin:     a.IsAdmin,
		Phone:       a.Phone,
		Email:       a.Email,
		Address:     a.Address,
		Image:       a.Image,
		LoginStamps: stamps,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func Views(accounts []Account) []View {
	views := make([]View, len(accounts))
	for i, a := range accounts {
		views[i] = a.View()
	}
	return views
}

// Clone returns a copy that shares no slices with a.
func (a Account) Clone() Account {
	c := a
	if a.LoginStamps != nil {
		c.LoginStamps = append([]time.Time(nil), a.LoginStamps...)
	}
	return c
}
