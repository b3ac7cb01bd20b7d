package models

// Role is the access level attached to a logged-in session
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRoles defines allowed session roles
var ValidRoles = map[Role]bool{
	RoleAdmin: true,
	RoleUser:  true,
}

// Session is the authentication state of one dashboard session.
// Role is only meaningful when LoggedIn is true.
type Session struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// IsAdmin reports whether the session is logged in with the admin role
func (s Session) IsAdmin() bool {
	return s.LoggedIn && s.Role == RoleAdmin
}
