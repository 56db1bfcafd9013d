package warranty

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mosesedem/servixing-sub001/internal/config"
)

// brandResult is the normalized outcome of one brand-specific warranty API
// call. Status is one of the Raw* warranty outcomes.
type brandResult struct {
	Status        string
	ExpiryDate    *time.Time
	PurchaseDate  *time.Time
	CoverageStart *time.Time
	CoverageEnd   *time.Time
	Raw           map[string]any
}

type brandClient interface {
	Provider() string
	Configured() bool
	Check(ctx context.Context, serial, imei string) (brandResult, error)
}

// blacklistClient checks an IMEI against a stolen/blocked device registry.
// Best-effort: callers merge its outcome and ignore its errors.
type blacklistClient interface {
	Configured() bool
	DeviceStatus(ctx context.Context, imei string) (string, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func decodeJSON(res *http.Response, out any) error {
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("warranty API error: %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// --- Apple ---

type appleClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAppleClient(cfg config.WarrantyConfig, timeout time.Duration) *appleClient {
	return &appleClient{baseURL: cfg.AppleBaseURL, apiKey: cfg.AppleAPIKey, http: newHTTPClient(timeout)}
}

func (c *appleClient) Provider() string { return ProviderApple }
func (c *appleClient) Configured() bool { return c.apiKey != "" }

func (c *appleClient) Check(ctx context.Context, serial, imei string) (brandResult, error) {
	payload := map[string]string{"serialNumber": serial}
	if serial == "" {
		payload = map[string]string{"imei": imei}
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/coverage", strings.NewReader(string(body)))
	if err != nil {
		return brandResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return brandResult{}, err
	}

	var out struct {
		CoverageStatus  string         `json:"coverageStatus"` // ACTIVE|EXPIRED|NOT_FOUND
		CoverageEndDate string         `json:"coverageEndDate"`
		PurchaseDate    string         `json:"estimatedPurchaseDate"`
		Raw             map[string]any `json:"-"`
	}
	if err := decodeJSON(res, &out); err != nil {
		return brandResult{}, err
	}

	status := RawUnknown
	switch strings.ToUpper(out.CoverageStatus) {
	case "ACTIVE":
		status = RawActive
	case "EXPIRED", "NOT_FOUND":
		status = RawExpired
	}

	end := parseDate(out.CoverageEndDate)
	return brandResult{
		Status:       status,
		ExpiryDate:   end,
		CoverageEnd:  end,
		PurchaseDate: parseDate(out.PurchaseDate),
		Raw:          map[string]any{"coverageStatus": out.CoverageStatus, "coverageEndDate": out.CoverageEndDate},
	}, nil
}

// --- Dell ---

type dellClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newDellClient(cfg config.WarrantyConfig, timeout time.Duration) *dellClient {
	return &dellClient{baseURL: cfg.DellBaseURL, apiKey: cfg.DellAPIKey, http: newHTTPClient(timeout)}
}

func (c *dellClient) Provider() string { return ProviderDell }
func (c *dellClient) Configured() bool { return c.apiKey != "" }

func (c *dellClient) Check(ctx context.Context, serial, _ string) (brandResult, error) {
	u := fmt.Sprintf("%s/PROD/sbil/eapi/v5/asset-entitlements?servicetags=%s", c.baseURL, url.QueryEscape(serial))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return brandResult{}, err
	}
	req.Header.Set("Apikey", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return brandResult{}, err
	}

	var out []struct {
		ShipDate     string `json:"shipDate"`
		Entitlements []struct {
			StartDate string `json:"startDate"`
			EndDate   string `json:"endDate"`
		} `json:"entitlements"`
	}
	if err := decodeJSON(res, &out); err != nil {
		return brandResult{}, err
	}
	if len(out) == 0 {
		return brandResult{Status: RawUnknown}, nil
	}

	asset := out[0]
	var start, end *time.Time
	for _, e := range asset.Entitlements {
		if d := parseDate(e.EndDate); d != nil && (end == nil || d.After(*end)) {
			end = d
		}
		if d := parseDate(e.StartDate); d != nil && (start == nil || d.Before(*start)) {
			start = d
		}
	}

	status := RawUnknown
	if end != nil {
		if end.After(time.Now()) {
			status = RawInWarranty
		} else {
			status = RawOutOfWarranty
		}
	}

	return brandResult{
		Status:        status,
		ExpiryDate:    end,
		CoverageStart: start,
		CoverageEnd:   end,
		PurchaseDate:  parseDate(asset.ShipDate),
		Raw:           map[string]any{"entitlements": len(asset.Entitlements), "shipDate": asset.ShipDate},
	}, nil
}

// --- Samsung ---

type samsungClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newSamsungClient(cfg config.WarrantyConfig, timeout time.Duration) *samsungClient {
	return &samsungClient{baseURL: cfg.SamsungBaseURL, apiKey: cfg.SamsungAPIKey, http: newHTTPClient(timeout)}
}

func (c *samsungClient) Provider() string { return ProviderSamsung }
func (c *samsungClient) Configured() bool { return c.apiKey != "" }

func (c *samsungClient) Check(ctx context.Context, serial, imei string) (brandResult, error) {
	payload := map[string]string{"serialNumber": serial, "imei": imei}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/warranty/v2/status", strings.NewReader(string(body)))
	if err != nil {
		return brandResult{}, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return brandResult{}, err
	}

	var out struct {
		WarrantyStatus string `json:"warrantyStatus"` // IN_WARRANTY|OUT_OF_WARRANTY|UNKNOWN
		WarrantyEnd    string `json:"warrantyEndDate"`
		PurchaseDate   string `json:"purchaseDate"`
	}
	if err := decodeJSON(res, &out); err != nil {
		return brandResult{}, err
	}

	status := RawUnknown
	switch strings.ToUpper(out.WarrantyStatus) {
	case "IN_WARRANTY":
		status = RawInWarranty
	case "OUT_OF_WARRANTY":
		status = RawOutOfWarranty
	}

	end := parseDate(out.WarrantyEnd)
	return brandResult{
		Status:       status,
		ExpiryDate:   end,
		CoverageEnd:  end,
		PurchaseDate: parseDate(out.PurchaseDate),
		Raw:          map[string]any{"warrantyStatus": out.WarrantyStatus, "warrantyEndDate": out.WarrantyEnd},
	}, nil
}

// --- HP ---

type hpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newHPClient(cfg config.WarrantyConfig, timeout time.Duration) *hpClient {
	return &hpClient{baseURL: cfg.HPBaseURL, apiKey: cfg.HPAPIKey, http: newHTTPClient(timeout)}
}

func (c *hpClient) Provider() string { return ProviderHP }
func (c *hpClient) Configured() bool { return c.apiKey != "" }

func (c *hpClient) Check(ctx context.Context, serial, _ string) (brandResult, error) {
	u := fmt.Sprintf("%s/productWarranty/v2/queries?serialNumber=%s", c.baseURL, url.QueryEscape(serial))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return brandResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return brandResult{}, err
	}

	var out struct {
		WarrantyState string `json:"warrantyState"` // Active|Expired
		StartDate     string `json:"warrantyStartDate"`
		EndDate       string `json:"warrantyEndDate"`
	}
	if err := decodeJSON(res, &out); err != nil {
		return brandResult{}, err
	}

	status := RawUnknown
	switch strings.ToLower(out.WarrantyState) {
	case "active":
		status = RawActive
	case "expired":
		status = RawExpired
	}

	end := parseDate(out.EndDate)
	return brandResult{
		Status:        status,
		ExpiryDate:    end,
		CoverageStart: parseDate(out.StartDate),
		CoverageEnd:   end,
		Raw:           map[string]any{"warrantyState": out.WarrantyState, "warrantyEndDate": out.EndDate},
	}, nil
}

// --- IMEI blacklist ---

type imeiBlacklistClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newBlacklistClient(cfg config.WarrantyConfig, timeout time.Duration) *imeiBlacklistClient {
	return &imeiBlacklistClient{baseURL: cfg.BlacklistBaseURL, apiKey: cfg.BlacklistAPIKey, http: newHTTPClient(timeout)}
}

func (c *imeiBlacklistClient) Configured() bool { return c.apiKey != "" }

func (c *imeiBlacklistClient) DeviceStatus(ctx context.Context, imei string) (string, error) {
	u := fmt.Sprintf("%s/v1/blacklist/%s", c.baseURL, url.PathEscape(imei))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		Blacklisted bool   `json:"blacklisted"`
		Status      string `json:"status"` // clean|blacklisted|reported_lost
	}
	if err := decodeJSON(res, &out); err != nil {
		return "", err
	}
	if out.Status != "" {
		return strings.ToLower(out.Status), nil
	}
	if out.Blacklisted {
		return "blacklisted", nil
	}
	return "clean", nil
}
