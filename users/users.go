package users

import (
	"strings"
)

// RoleType is the authorization role held in a user's profile record.
type RoleType string

const (
	RoleSeller RoleType = "seller"
	RoleBuyer  RoleType = "buyer"
	RoleAdmin  RoleType = "admin"
)

// UserProfile is the authorization record of a user (table user_profiles).
type UserProfile struct {
	ID       string   `json:"id"`
	Role     RoleType `json:"role"`
	IsActive bool     `json:"is_active"`
	Email    string   `json:"email,omitempty"`
}

// HasActiveRole reports whether the profile holds role and is active. Both are required.
func (p *UserProfile) HasActiveRole(role RoleType) bool {
	return p != nil && p.IsActive && p.Role == role
}

// DisplayProfile is what the dashboard chrome shows about a seller (table seller_profiles).
type DisplayProfile struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name,omitempty"`
	Email            string `json:"email,omitempty"`
	SubscriptionPlan Plan   `json:"subscription_plan,omitempty"`
}

const (
	fallbackName  = "Seller"
	fallbackEmail = "seller@dropleather.com"
)

// WithFallbacks fills gaps in a (possibly nil) display profile from the
// session email: name from its local part, plan free.
func (d *DisplayProfile) WithFallbacks(userID, sessionEmail string) DisplayProfile {
	out := DisplayProfile{ID: userID}
	if d != nil {
		out = *d
	}
	if out.ID == "" {
		out.ID = userID
	}
	if out.Email == "" {
		out.Email = sessionEmail
	}
	if out.DisplayName == "" {
		if local, _, ok := strings.Cut(sessionEmail, "@"); ok && local != "" {
			out.DisplayName = local
		} else {
			out.DisplayName = fallbackName
		}
	}
	if out.Email == "" {
		out.Email = fallbackEmail
	}
	out.SubscriptionPlan = ParsePlan(string(out.SubscriptionPlan))
	return out
}

// Initials returns up to two upper-case initials of the display name.
func (d DisplayProfile) Initials() string {
	var out []rune
	for _, word := range strings.Fields(d.DisplayName) {
		for _, r := range word {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}
