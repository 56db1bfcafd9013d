package workorders

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Repair lifecycle (orthogonal to payment status).
const (
	StatusReceived   = "received"
	StatusDiagnosing = "diagnosing"
	StatusRepairing  = "repairing"
	StatusReady      = "ready"
	StatusClosed     = "closed"
)

// Payment status mirror on the work order. The payment verification flow is
// the only writer of this field.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

type Device struct {
	ID           string  `gorm:"type:char(36);primaryKey"`
	UserID       *string `gorm:"type:char(36);index:ix_devices_user_id"`
	Brand        string  `gorm:"type:varchar(64);not null"`
	Model        *string `gorm:"type:varchar(128)"`
	SerialNumber *string `gorm:"type:varchar(64);index:ix_devices_serial"`
	IMEI         *string `gorm:"type:varchar(32);index:ix_devices_imei"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Device) TableName() string { return "devices" }

type WorkOrder struct {
	ID       string  `gorm:"type:char(36);primaryKey"`
	UserID   *string `gorm:"type:char(36);index:ix_work_orders_user_id"`
	DeviceID *string `gorm:"type:char(36);index:ix_work_orders_device_id"`

	Status        string          `gorm:"type:varchar(32);not null;default:received"`
	PaymentStatus string          `gorm:"type:varchar(16);not null;default:pending"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency      string          `gorm:"type:char(3);not null;default:NGN"`

	// Carries the service discriminator ("warranty-check", "repair", ...).
	Metadata datatypes.JSONMap `gorm:"type:json"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`

	Device *Device `gorm:"foreignKey:DeviceID"`
}

func (WorkOrder) TableName() string { return "work_orders" }
