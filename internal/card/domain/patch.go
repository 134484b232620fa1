package domain

type Patch struct {
	Title       *string       `json:"title"`
	Subtitle    *string       `json:"subtitle"`
	Description *string       `json:"description"`
	Phone       *string       `json:"phone"`
	Email       *string       `json:"email"`
	Web         *string       `json:"web"`
	Image       *ImagePatch   `json:"image"`
	Address     *AddressPatch `json:"address"`
	BizNumber   *int64        `json:"bizNumber"`
}

type ImagePatch struct {
	URL *string `json:"url"`
	Alt *string `json:"alt"`
}

type AddressPatch struct {
	State       *string `json:"state"`
	Country     *string `json:"country"`
	City        *string `json:"city"`
	Street      *string `json:"street"`
	HouseNumber *int    `json:"houseNumber"`
	Zip         *string `json:"zip"`
}

// Apply merges p into c. Owner, likes and timestamps are never touched.
func (p Patch) Apply(c Card) Card {
	out := c.Clone()
	set(&out.Title, p.Title)
	set(&out.Subtitle, p.Subtitle)
	set(&out.Description, p.Description)
	set(&out.Phone, p.Phone)
	set(&out.Email, p.Email)
	set(&out.Web, p.Web)
	if p.Image != nil {
		set(&out.Image.URL, p.Image.URL)
		set(&out.Image.Alt, p.Image.Alt)
	}
	if p.Address != nil {
		set(&out.Address.State, p.Address.State)
		set(&out.Address.Country, p.Address.Country)
		set(&out.Address.City, p.Address.City)
		set(&out.Address.Street, p.Address.Street)
		set(&out.Address.HouseNumber, p.Address.HouseNumber)
		set(&out.Address.Zip, p.Address.Zip)
	}
	set(&out.BizNumber, p.BizNumber)
	out.ApplyDefaults()
	return out
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
