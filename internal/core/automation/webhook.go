package automation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const webhookTimeout = 30 * time.Second

// WebhookClient performs outbound webhook calls on behalf of automations.
// Every URL passes the egress safety check before any network activity: the
// webhook action must not be usable to probe private networks.
type WebhookClient struct {
	httpClient *http.Client
}

// NewWebhookClient creates a webhook client with the engine's bounded timeout.
func NewWebhookClient() *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

// numericLabel matches decimal, octal, and hex host labels, the building
// blocks of obfuscated IPv4 literals like 0177.0.0.1 or 0x7f000001.
var numericLabel = regexp.MustCompile(`^(0x[0-9a-fA-F]+|[0-9]+)$`)

// ValidateWebhookURL rejects URLs whose host is, or syntactically resolves
// to, a private, loopback, link-local, or unique-local address, plus
// localhost-style names. No DNS lookup is performed; the check is purely
// syntactic and must run before any request.
func ValidateWebhookURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %v", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("webhook URL scheme must be http or https, got %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("webhook URL has no host")
	}

	if host == "localhost" || strings.HasSuffix(host, ".internal") || strings.HasSuffix(host, ".local") {
		return fmt.Errorf("webhook host %q is not allowed", host)
	}

	// IPv6 unique-local fd00::/8. The colon requirement keeps domain names
	// that merely start with the letters "fd" (fdic.gov) out of this rule.
	if strings.HasPrefix(host, "fd") && strings.Contains(host, ":") {
		return fmt.Errorf("webhook host %q is in a unique-local address range", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isForbiddenIP(ip) {
			return fmt.Errorf("webhook host %q is in a private or reserved address range", host)
		}
		return nil
	}

	// Not a parseable IP: refuse hosts assembled purely from numeric labels,
	// which browsers and libcs would still resolve as obfuscated IPv4.
	if isNumericHost(host) {
		return fmt.Errorf("webhook host %q looks like an obfuscated IP literal", host)
	}

	return nil
}

func isForbiddenIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

func isNumericHost(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if !numericLabel.MatchString(label) {
			return false
		}
	}
	return true
}

// Fire POSTs the payload as JSON. Non-2xx responses are errors carrying the
// HTTP status; there are no retries.
func (c *WebhookClient) Fire(targetURL string, payload map[string]interface{}) (int, error) {
	if err := ValidateWebhookURL(targetURL); err != nil {
		return 0, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
