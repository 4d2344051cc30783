package models

// AddressInput is the shipping address payload for /address/create.
type AddressInput struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
	Complement string `json:"complement,omitempty"`
}

// Address is a backend address record referenced by id after creation.
type Address struct {
	ID string `json:"id"`
	AddressInput
}
