package users

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        string  `gorm:"type:char(36);primaryKey"`
	Email     string  `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Role      string  `gorm:"type:varchar(16);not null;default:customer"`
	FirstName *string `gorm:"type:varchar(100)"`
	LastName  *string `gorm:"type:varchar(100)"`
	PhoneE164 *string `gorm:"type:varchar(20)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (User) TableName() string { return "users" }

func (u User) DisplayName() string {
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.FirstName != nil:
		return *u.FirstName
	default:
		return u.Email
	}
}
