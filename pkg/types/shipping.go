package types

// ShippingDetails is the contact/delivery block snapshotted onto an order.
// Region/district/ward follow the Tanzanian address structure of the storefront.
type ShippingDetails struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,min=9,max=15"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"required"`
	Region   string `json:"region" validate:"required,max=50"`
	District string `json:"district" validate:"required,max=50"`
	Ward     string `json:"ward" validate:"omitempty,max=50"`
}
