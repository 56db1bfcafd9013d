package payments

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Mosesedem/servixing-sub001/internal/modules/workorders"
)

// Payment status machine. Transitions are forward only:
// pending->paid, pending->failed, paid->refunded.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusFailed   = "failed"
	StatusRefunded = "refunded"
)

// Supported payment providers.
const (
	ProviderPaystack    = "paystack"
	ProviderEtegram     = "etegram"
	ProviderFlutterwave = "flutterwave"
)

// Service discriminator values carried in payment metadata.
const (
	ServiceWarrantyCheck = "warranty-check"
	ServiceRepair        = "repair"
)

// Payment is a financial record; rows are never hard-deleted.
type Payment struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	WorkOrderID *string `gorm:"type:char(36);index:ix_payments_work_order_id"`
	UserID      *string `gorm:"type:char(36);index:ix_payments_user_id"`

	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency string          `gorm:"type:char(3);not null"`

	Provider string `gorm:"type:varchar(32);not null;uniqueIndex:ux_payments_provider_ref,priority:1"`
	// Assigned at initialization, immutable afterwards.
	ProviderReference string `gorm:"type:varchar(128);not null;uniqueIndex:ux_payments_provider_ref,priority:2"`

	Status            string     `gorm:"type:varchar(16);not null"`
	WebhookVerified   bool       `gorm:"not null;default:false"`
	WebhookVerifiedAt *time.Time `gorm:"type:datetime(3)"`

	Metadata datatypes.JSONMap `gorm:"type:json"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`

	WorkOrder *workorders.WorkOrder `gorm:"foreignKey:WorkOrderID"`
}

func (Payment) TableName() string { return "payments" }

// Summary is the payment subset returned to API callers.
type Summary struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          string            `json:"currency"`
	Provider          string            `json:"provider"`
	ProviderReference string            `json:"reference"`
	WorkOrderID       *string           `json:"workOrderId,omitempty"`
	Metadata          datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
}

func (p *Payment) Summary() Summary {
	return Summary{
		ID:                p.ID,
		Status:            p.Status,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Provider:          p.Provider,
		ProviderReference: p.ProviderReference,
		WorkOrderID:       p.WorkOrderID,
		Metadata:          p.Metadata,
		CreatedAt:         p.CreatedAt,
	}
}

// Metadata is the typed view of the payment metadata bag. Known service
// discriminators get structured fields; everything else rides in Extra.
type Metadata struct {
	Service      string
	Brand        string
	SerialNumber string
	IMEI         string
	Email        string
	Extra        map[string]any
}

func ParseMetadata(m datatypes.JSONMap) Metadata {
	md := Metadata{Extra: map[string]any{}}
	for k, v := range m {
		s, _ := v.(string)
		switch k {
		case "service":
			md.Service = s
		case "brand":
			md.Brand = s
		case "serial_number", "serialNumber":
			md.SerialNumber = s
		case "imei":
			md.IMEI = s
		case "email":
			md.Email = s
		default:
			md.Extra[k] = v
		}
	}
	return md
}

func (md Metadata) JSONMap() datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range md.Extra {
		out[k] = v
	}
	if md.Service != "" {
		out["service"] = md.Service
	}
	if md.Brand != "" {
		out["brand"] = md.Brand
	}
	if md.SerialNumber != "" {
		out["serial_number"] = md.SerialNumber
	}
	if md.IMEI != "" {
		out["imei"] = md.IMEI
	}
	if md.Email != "" {
		out["email"] = md.Email
	}
	return out
}
