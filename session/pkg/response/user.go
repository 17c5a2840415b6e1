package response

import (
	"github.com/shopspring/decimal"
)

// User mirrors the profile the core API returns from /api/auth/me. It is the
// session's in-memory user object; the bearer token is the durable credential
// and lives with the caller, never here.
type User struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Role    string          `json:"role"`
	Balance decimal.Decimal `json:"balance"`
	Theme   string          `json:"theme"`
}

type Credentials struct {
	Token string `json:"token"`
}
