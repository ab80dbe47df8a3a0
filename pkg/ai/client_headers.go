package ai

import (
	"net/http"

	"github.com/kcaldas/synopsis/pkg/version"
)

const (
	// ClientHeaderName is the header we send to downstream LLM providers identifying Synopsis.
	ClientHeaderName = "X-Synopsis-Client"
	// ClientHeaderValue is the value Synopsis uses when identifying itself to LLM providers.
	ClientHeaderValue = "synopsis"
)

// DefaultHTTPHeaders returns a copy of the standard Synopsis headers for outbound LLM requests.
func DefaultHTTPHeaders() http.Header {
	h := make(http.Header)
	h.Add(ClientHeaderName, ClientHeaderValue)
	h.Set("User-Agent", version.GetInfo().UserAgent())
	return h
}
