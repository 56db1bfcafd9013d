package payments

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Mosesedem/servixing-sub001/internal/modules/warranty"
)

// checkCreator is the one create-if-absent warranty evaluation path, shared
// by the verify orchestrator and the status query service. The canonical
// status mapping is applied here and nowhere else.
type checkCreator struct {
	store  Store
	lookup warranty.Lookup
	logger *slog.Logger
}

// ensureCheck returns the existing warranty check for the payment's work
// order, or runs the lookup and records a new one. Returns (nil, nil) when
// the payment has no work order or no device to check.
func (c checkCreator) ensureCheck(ctx context.Context, p *Payment, initiatedBy string) (*warranty.Check, error) {
	if p.WorkOrderID == nil {
		return nil, nil
	}
	woID := *p.WorkOrderID

	existing, err := c.store.LatestCheck(ctx, woID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	wo := p.WorkOrder
	if wo == nil || wo.Device == nil {
		return nil, nil
	}
	dev := wo.Device

	in := warranty.CheckInput{Brand: dev.Brand}
	if dev.SerialNumber != nil {
		in.SerialNumber = *dev.SerialNumber
	}
	if dev.IMEI != nil {
		in.IMEI = *dev.IMEI
	}

	// Metadata fields fill gaps for synthesized devices.
	md := ParseMetadata(p.Metadata)
	if in.Brand == "" {
		in.Brand = md.Brand
	}
	if in.SerialNumber == "" {
		in.SerialNumber = md.SerialNumber
	}
	if in.IMEI == "" {
		in.IMEI = md.IMEI
	}

	now := time.Now()
	res, lookupErr := c.lookup.Check(ctx, in)
	if lookupErr != nil {
		// Only reachable for a missing brand; record the failure so the
		// work order is not re-evaluated forever.
		msg := truncate(lookupErr.Error(), 250)
		failed := &warranty.Check{
			ID:           uuid.NewString(),
			WorkOrderID:  &woID,
			Provider:     warranty.ProviderCustom,
			InitiatedBy:  initiatedBy,
			Status:       warranty.StatusFailed,
			ErrorMessage: &msg,
			DedupeKey:    &woID,
			CreatedAt:    now,
			FinishedAt:   &now,
		}
		return c.store.CreateAutoCheck(ctx, failed)
	}

	check := &warranty.Check{
		ID:             uuid.NewString(),
		WorkOrderID:    &woID,
		Provider:       res.Provider,
		InitiatedBy:    initiatedBy,
		Status:         warranty.CanonicalStatus(res.Status),
		WarrantyStatus: &res.Status,
		WarrantyExpiry: res.ExpiryDate,
		PurchaseDate:   res.PurchaseDate,
		CoverageStart:  res.CoverageStart,
		CoverageEnd:    res.CoverageEnd,
		DeviceStatus:   res.DeviceStatus,
		Result:         buildResultJSON(res, in, now),
		DedupeKey:      &woID,
		CreatedAt:      now,
		FinishedAt:     &now,
	}

	created, err := c.store.CreateAutoCheck(ctx, check)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "warranty check recorded",
		"work_order_id", woID,
		"provider", created.Provider,
		"status", created.Status,
		"initiated_by", initiatedBy,
	)
	return created, nil
}

// buildResultJSON keeps the keys downstream detail views read by name.
func buildResultJSON(res warranty.CheckResult, in warranty.CheckInput, checkedAt time.Time) datatypes.JSON {
	out := map[string]any{
		"status":    res.Status,
		"provider":  res.Provider,
		"checkedAt": checkedAt.UTC().Format(time.RFC3339),
	}
	if res.ExpiryDate != nil {
		out["expiryDate"] = res.ExpiryDate.UTC().Format(time.RFC3339)
	}
	if res.DeviceStatus != nil {
		out["deviceStatus"] = *res.DeviceStatus
	}
	if in.SerialNumber != "" {
		out["serialNumber"] = in.SerialNumber
	}
	if in.IMEI != "" {
		out["imei"] = in.IMEI
	}
	if len(res.Raw) > 0 {
		out["raw"] = res.Raw
	}

	b, _ := json.Marshal(out)
	return datatypes.JSON(b)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
