package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Sends a Paystack-shaped signed event to a local webhook endpoint.
func main() {
	url := flag.String("url", "http://localhost:8080/webhooks/paystack", "Webhook URL")
	secret := flag.String("secret", os.Getenv("PAYSTACK_WEBHOOK_SECRET"), "Webhook secret")
	eventID := flag.Int64("event-id", time.Now().UnixNano(), "Numeric provider event ID")
	eventType := flag.String("type", "charge.success", "Event type (charge.success, charge.failed)")
	reference := flag.String("reference", "svx_"+randomHex(8), "Payment reference")
	amount := flag.Int("amount", 500000, "Amount in kobo")
	currency := flag.String("currency", "NGN", "Currency")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and PAYSTACK_WEBHOOK_SECRET not set\n")
		os.Exit(1)
	}

	payload := map[string]any{
		"event": *eventType,
		"data": map[string]any{
			"id":        *eventID,
			"reference": *reference, // matches the payment's provider reference
			"amount":    *amount,
			"currency":  *currency,
			"status":    "success",
			"paid_at":   time.Now().UTC().Format(time.RFC3339),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	mac := hmac.New(sha512.New, []byte(*secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	if *dryRun {
		fmt.Printf("x-paystack-signature: %s\n%s\n", signature, body)
		return
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-paystack-signature", signature)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending webhook: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s\n%s\n", resp.Status, respBody)
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
