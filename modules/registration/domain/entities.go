package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const RoleUser Role = "user"

type CampiteType string

const (
	CampiteRegular CampiteType = "regular"
	CampitePremium CampiteType = "premium"
)

type District struct {
	ID        ID        `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Zones     []string  `json:"zones"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an account record. LegacyID is a one-shot bridge to the historical
// export: it is cleared the first time a registration resolves through it.
type User struct {
	ID        ID        `json:"id" validate:"required"`
	LegacyID  *ID       `json:"legacy_id,omitempty"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Camp is read-only reference data. Fee is the amount charged to regular
// registrants.
type Camp struct {
	ID    ID                  `json:"id" validate:"required"`
	Title string              `json:"title,omitempty"`
	Fee   decimal.NullDecimal `json:"fee"`
}

// Campite is a registrant of a camp, always attached to exactly one User.
// DistrictID is omitted from JSON when unresolved; CampID and Amount are
// written as null.
type Campite struct {
	ID             ID          `json:"id" db:"id"`
	FirstName      string      `json:"firstname" db:"firstname"`
	LastName       string      `json:"lastname" db:"lastname"`
	Email          string      `json:"email" db:"email"`
	Phone          string      `json:"phone" db:"phone"`
	AgeGroup       string      `json:"age_group" db:"age_group"`
	Gender         string      `json:"gender" db:"gender"`
	CampID         *ID         `json:"camp_id" db:"camp_id"`
	UserID         ID          `json:"user_id" db:"user_id"`
	DistrictID     *ID         `json:"district_id,omitempty" db:"district_id"`
	PaymentRef     *string     `json:"payment_ref" db:"payment_ref"`
	Type           CampiteType `json:"type" db:"type"`
	Amount         *int64      `json:"amount" db:"amount"`
	AllocatedItems string      `json:"allocated_items" db:"allocated_items"`
	CheckinAt      *time.Time  `json:"checkin_at" db:"checkin_at"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time  `json:"deleted_at" db:"deleted_at"`
}
