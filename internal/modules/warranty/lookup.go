package warranty

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Mosesedem/servixing-sub001/internal/config"
)

// ErrBrandRequired is the only error Check ever returns; every upstream
// failure is downgraded to a requires_verification outcome instead.
var ErrBrandRequired = errors.New("warranty: brand is required")

type CheckInput struct {
	Brand        string
	SerialNumber string
	IMEI         string
}

// CheckResult is the canonical lookup result shape. Status is one of the Raw*
// outcomes; callers map it through CanonicalStatus.
type CheckResult struct {
	Status        string
	Provider      string
	ExpiryDate    *time.Time
	PurchaseDate  *time.Time
	CoverageStart *time.Time
	CoverageEnd   *time.Time
	DeviceStatus  *string
	Raw           map[string]any
}

type Lookup interface {
	Check(ctx context.Context, in CheckInput) (CheckResult, error)
}

type Service struct {
	clients   []brandClient
	blacklist blacklistClient
	logger    *slog.Logger
}

var _ Lookup = (*Service)(nil)

func NewService(cfg config.WarrantyConfig, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		clients: []brandClient{
			newAppleClient(cfg, timeout),
			newDellClient(cfg, timeout),
			newSamsungClient(cfg, timeout),
			newHPClient(cfg, timeout),
		},
		blacklist: newBlacklistClient(cfg, timeout),
		logger:    logger,
	}
}

// NormalizeBrand maps a free-text brand to a warranty provider, or "" when no
// brand-specific API exists for it.
func NormalizeBrand(brand string) string {
	switch b := strings.ToUpper(strings.TrimSpace(brand)); {
	case b == "":
		return ""
	case containsAny(b, "APPLE", "IPHONE", "IPAD", "MACBOOK", "IMAC", "MAC MINI"):
		return ProviderApple
	case containsAny(b, "DELL", "ALIENWARE"):
		return ProviderDell
	case containsAny(b, "SAMSUNG", "GALAXY"):
		return ProviderSamsung
	case containsAny(b, "HP", "HEWLETT", "COMPAQ", "OMEN"):
		return ProviderHP
	default:
		return ""
	}
}

func containsAny(s string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Check never fails for "can't determine" cases: missing identifiers report
// unknown, unsupported brands report not_applicable, and any credential or
// upstream problem reports requires_verification so the caller can route the
// device to manual review.
func (s *Service) Check(ctx context.Context, in CheckInput) (CheckResult, error) {
	if strings.TrimSpace(in.Brand) == "" {
		return CheckResult{}, ErrBrandRequired
	}

	provider := NormalizeBrand(in.Brand)

	out := CheckResult{Provider: provider, Raw: map[string]any{}}
	if provider == "" {
		out.Provider = ProviderCustom
	}

	// IMEI blacklist enrichment runs regardless of the brand lookup outcome.
	if in.IMEI != "" && s.blacklist.Configured() {
		if ds, err := s.blacklist.DeviceStatus(ctx, in.IMEI); err != nil {
			s.logger.WarnContext(ctx, "imei blacklist lookup failed", "imei", in.IMEI, "err", err)
		} else {
			out.DeviceStatus = &ds
			out.Raw["deviceStatus"] = ds
		}
	}

	if provider == "" {
		out.Status = RawNotApplicable
		return out, nil
	}

	if in.SerialNumber == "" && in.IMEI == "" {
		out.Status = RawUnknown
		return out, nil
	}

	client := s.clientFor(provider)
	if client == nil || !client.Configured() {
		s.logger.InfoContext(ctx, "warranty provider not configured", "provider", provider)
		out.Status = RawRequiresVerification
		return out, nil
	}

	res, err := client.Check(ctx, in.SerialNumber, in.IMEI)
	if err != nil {
		s.logger.WarnContext(ctx, "warranty lookup failed", "provider", provider, "serial", in.SerialNumber, "err", err)
		out.Status = RawRequiresVerification
		return out, nil
	}

	out.Status = res.Status
	out.ExpiryDate = res.ExpiryDate
	out.PurchaseDate = res.PurchaseDate
	out.CoverageStart = res.CoverageStart
	out.CoverageEnd = res.CoverageEnd
	for k, v := range res.Raw {
		out.Raw[k] = v
	}
	return out, nil
}

func (s *Service) clientFor(provider string) brandClient {
	for _, c := range s.clients {
		if c.Provider() == provider {
			return c
		}
	}
	return nil
}
