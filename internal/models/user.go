package models

// Custom claim keys. By convention an account carries at most one of them.
const (
	ClaimAdmin      = "admin"
	ClaimCommonUser = "commonUser"
)

// Role names accepted by the account creation callable.
const (
	RoleAdmin      = "admin"
	RoleCommonUser = "commonUser"
)

// UserAccount mirrors an identity-provider account. The core never owns it.
type UserAccount struct {
	UID          string                 `json:"uid"`
	Email        string                 `json:"email"`
	CustomClaims map[string]interface{} `json:"customClaims"`
}

// HasClaim reports whether the claim is present and set to true.
func (u UserAccount) HasClaim(name string) bool {
	return claimTrue(u.CustomClaims, name)
}

// Principal is the verified caller of a request.
type Principal struct {
	UID    string
	Email  string
	Claims map[string]interface{}
}

func (p *Principal) IsAdmin() bool {
	return p != nil && claimTrue(p.Claims, ClaimAdmin)
}

func claimTrue(claims map[string]interface{}, name string) bool {
	v, ok := claims[name].(bool)
	return ok && v
}

// AuthUserEvent is the data of the account-created event.
type AuthUserEvent struct {
	UID          string                 `json:"uid"`
	Email        string                 `json:"email"`
	CustomClaims map[string]interface{} `json:"customClaims"`
}
