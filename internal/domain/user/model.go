package user

// Role is the platform role of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status is the review status of an account.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

// User is the cached profile of the signed-in account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Status    Status `json:"status"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// IsApproved reports whether the account may reach project screens.
func (u *User) IsApproved() bool {
	return u != nil && u.Status == StatusApproved
}

// IsAdmin reports whether the account has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Denied reports whether the account status forbids any session.
func (u *User) Denied() bool {
	return u != nil && (u.Status == StatusRejected || u.Status == StatusSuspended)
}

// Application is a pending access request as seen by administrators.
type Application struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Purpose   string `json:"purpose"`
	Status    Status `json:"status"`
	AppliedAt string `json:"appliedAt"`
}

// Account is a user row in the admin user listing.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Status       Status `json:"status"`
	ProjectCount int    `json:"projectCount"`
	LastLogin    string `json:"last_login,omitempty"`
	CreatedAt    string `json:"created_at"`
}
