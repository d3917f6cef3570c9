package models

// Role is the actor role attached to every guarded transition request.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	// RoleSystem is used by the completion sweep only, never by a client.
	RoleSystem Role = "system"
)

// TokenPayload is the verified identity carried by an auth token.
type TokenPayload struct {
	UserID string
	Role   Role
	ShopID string
}

// Session is the single serialized client-side session object.
type Session struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	ShopID string `json:"shop_id,omitempty"`
	Token  string `json:"token"`
}
