package models

// User represents a registered customer.
type User struct {
	BaseModel
	Email        string  `gorm:"uniqueIndex;size:255" json:"email"`
	FirstName    string  `gorm:"size:100" json:"first_name"`
	LastName     string  `gorm:"size:100" json:"last_name"`
	PasswordHash string  `json:"-"`
	LastLoginIP  string  `gorm:"size:45" json:"-"`
	Orders       []Order `json:"orders,omitempty"`
}
