package domain

// Patch carries the fields of an update request. Nil means "keep".
// Role flags are deliberately absent; they change only through their own
// operations.
type Patch struct {
	Name     *NamePatch    `json:"name"`
	Phone    *string       `json:"phone"`
	Email    *string       `json:"email"`
	Password *string       `json:"password"`
	Address  *AddressPatch `json:"address"`
	Image    *ImagePatch   `json:"image"`
}

type NamePatch struct {
	First  *string `json:"first"`
	Middle *string `json:"middle"`
	Last   *string `json:"last"`
}

type AddressPatch struct {
	State       *string `json:"state"`
	Country     *string `json:"country"`
	City        *string `json:"city"`
	Street      *string `json:"street"`
	HouseNumber *int    `json:"houseNumber"`
	Zip         *int    `json:"zip"`
}

type ImagePatch struct {
	URL *string `json:"url"`
	Alt *string `json:"alt"`
}

// Apply merges p into a and returns the result. The password is handled by
// the caller because it has to be hashed.
func (p Patch) Apply(a Account) Account {
	out := a.Clone()
	if p.Name != nil {
		setString(&out.Name.First, p.Name.First)
		setString(&out.Name.Middle, p.Name.Middle)
		setString(&out.Name.Last, p.Name.Last)
	}
	setString(&out.Phone, p.Phone)
	setString(&out.Email, p.Email)
	if p.Address != nil {
		setString(&out.Address.State, p.Address.State)
		setString(&out.Address.Country, p.Address.Country)
		setString(&out.Address.City, p.Address.City)
		setString(&out.Address.Street, p.Address.Street)
		setInt(&out.Address.HouseNumber, p.Address.HouseNumber)
		setInt(&out.Address.Zip, p.Address.Zip)
	}
	if p.Image != nil {
		setString(&out.Image.URL, p.Image.URL)
		setString(&out.Image.Alt, p.Image.Alt)
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
