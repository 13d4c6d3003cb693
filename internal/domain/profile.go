package domain

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
)

type Address struct {
	Address string `json:"address"`
	Primary bool   `json:"primary"`
}

type Profile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        Role      `json:"role"`
	Addresses   []Address `json:"addresses"`
	Wishlist    []Listing `json:"wishlist"`
}

// PrimaryAddress returns the address flagged primary, falling back to the
// first one saved.
func (p Profile) PrimaryAddress() (string, bool) {
	for _, a := range p.Addresses {
		if a.Primary {
			return a.Address, true
		}
	}
	if len(p.Addresses) > 0 {
		return p.Addresses[0].Address, true
	}
	return "", false
}
