package constants

const AppStorefront = "talkingpet-storefront"

const (
	RoleCustomer = "customer"
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// Snapshot key families mirror the browser client's local-storage partitioning
// so a running storefront never mixes concerns under one key.
const (
	KeyCartSnapshot = "storefront:cart:%s"
	KeySessionUser  = "storefront:session:%s"
	KeyCheckout     = "storefront:checkout:%s"
	KeyChatSession  = "storefront:chat:%s"
)

// AnonymousIdentity keys the cart of a visitor that is not logged in.
const AnonymousIdentity = "anonymous"
