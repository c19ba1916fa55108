package model

import (
	"slices"
	"time"

	"soulfamily/sounds-api/internal/workflow"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleStaff    Role = "Staff"
	RoleSupplier Role = "Supplier"
	RoleMember   Role = "Member"
)

var Roles = []Role{RoleAdmin, RoleStaff, RoleSupplier, RoleMember}

func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

type User struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         Role       `gorm:"index;not null" json:"role"`
	Verified     bool       `gorm:"default:false" json:"verified"`
	ExpiresAt    *time.Time `json:"-"` // Unverified members are purged after this
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"-"`

	// Deleted accounts keep their email and username reserved
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	VerificationTokens []VerificationToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Supplier           *SupplierProfile    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"supplier,omitempty"`
	Member             *MemberProfile      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"member,omitempty"`
}

type MemberProfile struct {
	UserID      string `gorm:"primaryKey" json:"-"`
	Country     string `json:"country"`
	City        string `json:"city_or_state"`
	Description string `json:"description"`
}

type SupplierProfile struct {
	UserID      string `gorm:"primaryKey" json:"-"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ArtistName  string `json:"artist_name"`
	Address     string `json:"complete_residence_address"`
	City        string `json:"major_city"`
	Country     string `json:"country_or_state"`
	Bio         string `json:"bio"`
	Talent      string `json:"talent"`
	DAW         string `json:"daw"`
	Worked      bool   `json:"worked"`
	Released    bool   `json:"released"`
	ContractKey string `json:"contract_key,omitempty"`
}

// SupplierRequest tracks a supplier application through onboarding
type SupplierRequest struct {
	ID            uint                   `gorm:"primaryKey" json:"id"`
	SupplierID    string                 `gorm:"uniqueIndex;not null" json:"-"`
	Status        workflow.RequestStatus `gorm:"index;not null" json:"status"`
	Hidden        bool                   `json:"hidden"`
	InterviewDate *time.Time             `json:"interview_date"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"-"`

	Supplier User `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE" json:"supplier"`
}
