package automation

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWebhookURL_Allowed(t *testing.T) {
	allowed := []string{
		"https://example.com/hook",
		"http://api.example.com:8443/path?x=1",
		"https://fdic.gov/endpoint", // starts with "fd" but is a domain, not IPv6
		"https://fd-updates.example.com/hook",
		"https://8.8.8.8/hook", // public IP literal is fine
	}
	for _, u := range allowed {
		assert.NoError(t, ValidateWebhookURL(u), u)
	}
}

func TestValidateWebhookURL_Blocked(t *testing.T) {
	blocked := []string{
		"ftp://example.com/hook",
		"file:///etc/passwd",
		"https://localhost/hook",
		"https://localhost:9090/hook",
		"http://127.0.0.1/hook",
		"http://0.0.0.0/hook",
		"http://10.1.2.3/hook",
		"http://172.16.0.1/hook",
		"http://172.31.255.255/hook",
		"http://192.168.1.1/hook",
		"http://169.254.169.254/latest/meta-data", // metadata endpoint
		"http://[::1]/hook",
		"http://[::]/hook",
		"http://[fe80::1]/hook",
		"http://[fc00::1]/hook",
		"http://[fd12:3456::1]/hook",
		"https://metadata.internal/hook",
		"https://printer.local/hook",
		"http://0177.0.0.1/hook",   // octal IPv4
		"http://0x7f000001/hook",   // hex IPv4
		"http://0x7f.0.0.0x1/hook", // mixed obfuscation
		"http://2130706433/hook",   // decimal IPv4
	}
	for _, u := range blocked {
		assert.Error(t, ValidateWebhookURL(u), u)
	}
}

// roundTripFunc lets tests stub the transport; httptest servers listen on
// loopback, which the egress policy itself rejects.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func stubbedClient(status int) (*WebhookClient, *http.Request) {
	var captured http.Request
	client := NewWebhookClient()
	client.httpClient.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		captured = *r
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader("ok")),
			Header:     http.Header{},
		}, nil
	})
	return client, &captured
}

func TestFire_Success(t *testing.T) {
	client, captured := stubbedClient(http.StatusOK)

	status, err := client.Fire("https://example.com/hook", map[string]interface{}{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
}

func TestFire_Non2xxIsError(t *testing.T) {
	client, _ := stubbedClient(http.StatusBadGateway)

	status, err := client.Fire("https://example.com/hook", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, err.Error(), "502")
}

func TestFire_BlockedURLNeverHitsNetwork(t *testing.T) {
	client := NewWebhookClient()
	client.httpClient.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatal("request must not be sent for a blocked URL")
		return nil, nil
	})

	_, err := client.Fire("http://169.254.169.254/latest", map[string]interface{}{})
	assert.Error(t, err)
}
