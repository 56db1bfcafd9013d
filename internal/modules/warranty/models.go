package warranty

import (
	"time"

	"gorm.io/datatypes"
)

// Warranty providers we can talk to.
const (
	ProviderApple   = "apple"
	ProviderDell    = "dell"
	ProviderSamsung = "samsung"
	ProviderHP      = "hp"
	ProviderCustom  = "custom"
)

// Check status lifecycle.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusSuccess        = "success"
	StatusFailed         = "failed"
	StatusManualRequired = "manual_required"
)

// Actor tags for InitiatedBy.
const (
	InitiatedByPaymentVerify = "payment_verify"
	InitiatedByPaymentAuto   = "payment_auto"
	InitiatedByPublic        = "public"
)

type Check struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	WorkOrderID *string `gorm:"type:char(36);index:ix_warranty_checks_work_order_id"`

	Provider    string `gorm:"type:varchar(32);not null"`
	InitiatedBy string `gorm:"type:varchar(64);not null"`
	Status      string `gorm:"type:varchar(32);not null"`

	WarrantyStatus *string    `gorm:"type:varchar(64)"`
	WarrantyExpiry *time.Time `gorm:"type:datetime(3)"`
	PurchaseDate   *time.Time `gorm:"type:datetime(3)"`
	CoverageStart  *time.Time `gorm:"type:datetime(3)"`
	CoverageEnd    *time.Time `gorm:"type:datetime(3)"`
	DeviceStatus   *string    `gorm:"type:varchar(64)"`

	// Raw provider payload plus derived fields; admin views read
	// status/provider/expiryDate/deviceStatus/checkedAt/serialNumber/imei by name.
	Result datatypes.JSON `gorm:"type:json"`

	ErrorMessage *string `gorm:"type:varchar(255)"`

	// Set to the work order id for checks created by the automatic payment
	// path, NULL otherwise. The unique index is the duplicate-check guard:
	// two racing creators collide on it instead of both inserting.
	DedupeKey *string `gorm:"type:char(36);uniqueIndex:ux_warranty_checks_dedupe"`

	CreatedAt  time.Time  `gorm:"type:datetime(3);not null"`
	FinishedAt *time.Time `gorm:"type:datetime(3)"`
}

func (Check) TableName() string { return "warranty_checks" }

// Finished reports whether the check left the queued/in-progress states.
func (c Check) Finished() bool {
	return c.Status != StatusQueued && c.Status != StatusInProgress
}
