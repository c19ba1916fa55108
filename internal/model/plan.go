package model

type PlanType string

const (
	PlanMonthlyAnnually PlanType = "Monthly/Annually"
	PlanCustom          PlanType = "Custom"
)

type PlanStatus string

const (
	PlanActive   PlanStatus = "Active"
	PlanInactive PlanStatus = "Inactive"
)

type Timeline string

const (
	TimelineMonthly Timeline = "Monthly"
	TimelineYearly  Timeline = "Yearly"
)

var Timelines = []Timeline{TimelineMonthly, TimelineYearly}

type Plan struct {
	ID      uint         `gorm:"primaryKey" json:"id"`
	Name    string       `gorm:"uniqueIndex;not null" json:"name"`
	Type    PlanType     `gorm:"index;not null" json:"plan_type"`
	Status  PlanStatus   `gorm:"not null" json:"status"`
	Details []PlanDetail `gorm:"constraint:OnDelete:CASCADE" json:"details"`
}

type PlanDetail struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	PlanID   uint     `gorm:"index" json:"-"`
	Plan     *Plan    `json:"plan,omitempty"`
	Pricing  int      `json:"pricing"`
	Points   int      `json:"points"`
	Timeline Timeline `gorm:"index;not null" json:"timeline"`
	Currency string   `gorm:"not null" json:"currency"`
	Duration *int     `json:"duration,omitempty"` // days, custom plans only
}

// Pricing is a singleton row
type Pricing struct {
	ID                uint    `gorm:"primaryKey" json:"-"`
	CentsPerPoint     float64 `json:"cents_per_point"`
	PointsPerSample   int     `json:"points_per_sample"`
	PointsPerMidi     int     `json:"points_per_midi"`
	PointsPerPreset   int     `json:"points_per_preset"`
	NonProfitsLicence int     `json:"non_profits_licence"`
	CommercialLicence int     `json:"commercial_licence"`
	UnlimitedLicence  int     `json:"unlimited_licence"`
}

const CurrencyDollar = "$"
