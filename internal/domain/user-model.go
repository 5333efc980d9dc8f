package domain

import "time"

const (
	RoleRegular   = "regular"
	RoleCashier   = "cashier"
	RoleManager   = "manager"
	RoleSuperuser = "superuser"
)

var roleRanks = map[string]int{
	RoleRegular:   0,
	RoleCashier:   1,
	RoleManager:   2,
	RoleSuperuser: 3,
}

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	_, ok := roleRanks[role]
	return ok
}

// RoleAtLeast reports whether role meets the minimum clearance min.
// Unknown roles never clear anything.
func RoleAtLeast(role, min string) bool {
	r, ok := roleRanks[role]
	if !ok {
		return false
	}
	m, ok := roleRanks[min]
	if !ok {
		return false
	}
	return r >= m
}

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Utorid       string `gorm:"type:varchar(8);uniqueIndex;not null" json:"utorid"`
	Name         string `gorm:"type:varchar(50);not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"`
	Birthday     *time.Time `json:"birthday,omitempty"`
	Role         string     `gorm:"type:varchar(20);not null;default:regular" json:"role"`
	Points       int        `gorm:"not null;default:0" json:"points"`
	Suspicious   bool       `gorm:"not null;default:false" json:"suspicious"`
	Verified     bool       `gorm:"not null;default:false" json:"verified"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`

	ResetTokenHash      string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
