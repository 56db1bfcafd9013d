package payments

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Mosesedem/servixing-sub001/internal/modules/users"
	"github.com/Mosesedem/servixing-sub001/internal/modules/warranty"
	"github.com/Mosesedem/servixing-sub001/internal/modules/workorders"
)

type GormStore struct {
	db *gorm.DB
}

var (
	_ Store       = (*GormStore)(nil)
	_ EventLedger = (*GormStore)(nil)
)

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) CreatePayment(ctx context.Context, p *Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) PaymentByReference(ctx context.Context, reference string) (*Payment, error) {
	var p Payment
	err := s.db.WithContext(ctx).
		Preload("WorkOrder").
		Preload("WorkOrder.Device").
		First(&p, "provider_reference = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) PaymentByID(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	err := s.db.WithContext(ctx).
		Preload("WorkOrder").
		Preload("WorkOrder.Device").
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) MarkPaid(ctx context.Context, in MarkPaidInput) (MarkPaidResult, error) {
	var out MarkPaidResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Payment row lock: concurrent verifications serialize here.
		var p Payment
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "id = ?", in.PaymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		// idempotent replay
		if p.Status == StatusPaid {
			out = MarkPaidResult{Applied: false, WorkOrderID: p.WorkOrderID}
			return nil
		}
		if p.Status != StatusPending {
			return ErrNotTransitionable
		}

		// CAS on status backs up the row lock: zero rows means a racer won.
		res := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, StatusPending).
			Updates(map[string]any{
				"status":              StatusPaid,
				"webhook_verified":    true,
				"webhook_verified_at": in.At,
				"updated_at":          in.At,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotTransitionable
		}

		woID := p.WorkOrderID
		if woID == nil && in.Synthesize != nil {
			id, err := s.synthesizeWorkOrder(ctx, tx, p.ID, *in.Synthesize, in.At)
			if err != nil {
				return err
			}
			woID = &id
		}

		if woID != nil {
			if err := tx.WithContext(ctx).Model(&workorders.WorkOrder{}).
				Where("id = ?", *woID).
				Updates(map[string]any{
					"payment_status": workorders.PaymentPaid,
					"updated_at":     in.At,
				}).Error; err != nil {
				return err
			}
		}

		out = MarkPaidResult{Applied: true, WorkOrderID: woID}
		return nil
	})
	if err != nil {
		return MarkPaidResult{}, err
	}
	return out, nil
}

// synthesizeWorkOrder creates the device + work order pair for a
// warranty-check purchase and attaches the work order to the payment.
func (s *GormStore) synthesizeWorkOrder(ctx context.Context, tx *gorm.DB, paymentID string, in SynthesizeInput, now time.Time) (string, error) {
	dev := workorders.Device{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		Brand:        in.Brand,
		Model:        in.Model,
		SerialNumber: in.SerialNumber,
		IMEI:         in.IMEI,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&dev).Error; err != nil {
		return "", err
	}

	wo := workorders.WorkOrder{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		DeviceID:      &dev.ID,
		Status:        workorders.StatusReceived,
		PaymentStatus: workorders.PaymentPending, // flipped by the caller
		TotalAmount:   in.Amount,
		Currency:      in.Currency,
		Metadata:      in.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(&wo).Error; err != nil {
		return "", err
	}

	if err := tx.WithContext(ctx).Model(&Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]any{"work_order_id": wo.ID, "updated_at": now}).Error; err != nil {
		return "", err
	}
	return wo.ID, nil
}

func (s *GormStore) MarkFailed(ctx context.Context, paymentID string) error {
	now := time.Now()
	// Forward-only: a failure report never overrides paid/refunded.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ? AND status = ?", paymentID, StatusPending).
			Updates(map[string]any{"status": StatusFailed, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var p Payment
		if err := tx.WithContext(ctx).First(&p, "id = ?", paymentID).Error; err != nil {
			return err
		}
		if p.WorkOrderID == nil {
			return nil
		}
		return tx.WithContext(ctx).Model(&workorders.WorkOrder{}).
			Where("id = ? AND payment_status = ?", *p.WorkOrderID, workorders.PaymentPending).
			Updates(map[string]any{"payment_status": workorders.PaymentFailed, "updated_at": now}).Error
	})
}

func (s *GormStore) MarkRefunded(ctx context.Context, paymentID string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Payment
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if p.Status != StatusPaid {
			return ErrNotTransitionable
		}

		res := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, StatusPaid).
			Updates(map[string]any{"status": StatusRefunded, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotTransitionable
		}

		if p.WorkOrderID == nil {
			return nil
		}
		return tx.WithContext(ctx).Model(&workorders.WorkOrder{}).
			Where("id = ?", *p.WorkOrderID).
			Updates(map[string]any{"payment_status": workorders.PaymentRefunded, "updated_at": at}).Error
	})
}

func (s *GormStore) LatestCheck(ctx context.Context, workOrderID string) (*warranty.Check, error) {
	var c warranty.Check
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		First(&c, "work_order_id = ?", workOrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) CreateAutoCheck(ctx context.Context, c *warranty.Check) (*warranty.Check, error) {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		if isDup(err) && c.DedupeKey != nil {
			// A concurrent creator won; hand back the surviving row.
			var existing warranty.Check
			if err := s.db.WithContext(ctx).First(&existing, "dedupe_key = ?", *c.DedupeKey).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *GormStore) SearchLatestCheck(ctx context.Context, q CheckQuery) (*warranty.Check, error) {
	db := s.db.WithContext(ctx).Model(&warranty.Check{}).
		Joins("LEFT JOIN work_orders ON work_orders.id = warranty_checks.work_order_id").
		Joins("LEFT JOIN devices ON devices.id = work_orders.device_id").
		Joins("LEFT JOIN users ON users.id = work_orders.user_id")

	switch {
	case q.Email != "":
		db = db.Where("users.email = ?", q.Email)
	case q.SerialNumber != "":
		db = db.Where("devices.serial_number = ?", q.SerialNumber)
	case q.IMEI != "":
		db = db.Where("devices.imei = ?", q.IMEI)
	default:
		return nil, nil
	}

	var c warranty.Check
	err := db.Order("warranty_checks.created_at DESC").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) UserByID(ctx context.Context, id string) (*users.User, error) {
	var u users.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) RecordEvent(ctx context.Context, pe *ProviderEvent) error {
	if err := s.db.WithContext(ctx).Create(pe).Error; err != nil {
		if isDup(err) {
			return ErrEventExists
		}
		return err
	}
	return nil
}

func (s *GormStore) EventByKey(ctx context.Context, provider, eventID string) (*ProviderEvent, error) {
	var pe ProviderEvent
	err := s.db.WithContext(ctx).
		First(&pe, "provider = ? AND event_id = ?", provider, eventID).Error
	if err != nil {
		return nil, err
	}
	return &pe, nil
}

func (s *GormStore) MarkEventProcessed(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&ProviderEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"processed_at": &at, "process_error": nil}).Error
}

func (s *GormStore) RecordEventError(ctx context.Context, id, msg string) error {
	return s.db.WithContext(ctx).Model(&ProviderEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"process_error": msg}).Error
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
