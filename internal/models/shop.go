package models

// ShopService is a laundry service offered by a shop.
type ShopService struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ShopAddOn is an optional add-on offered by a shop.
type ShopAddOn struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// DeliveryOption is a pickup/delivery variant offered by a shop.
type DeliveryOption struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Fee     float64 `json:"fee"`
	DropOff bool    `json:"drop_off"`
}

// PaymentMethod is a payment channel accepted by a shop.
type PaymentMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShopDetails is the full shop bundle returned by the full-details endpoint.
type ShopDetails struct {
	ShopID          string           `json:"shop_id"`
	Name            string           `json:"name"`
	OwnDelivery     bool             `json:"own_delivery"`
	LinkedApps      []string         `json:"linked_apps"`
	Services        []ShopService    `json:"services"`
	AddOns          []ShopAddOn      `json:"add_ons"`
	DeliveryOptions []DeliveryOption `json:"delivery_options"`
	FabricTypes     []string         `json:"fabric_types"`
	PaymentMethods  []PaymentMethod  `json:"payment_methods"`
}
