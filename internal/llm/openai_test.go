package llm

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-app/pennywise/internal/service"
)

// scriptedTransport replays a fixed sequence of HTTP responses, repeating
// the last one, and counts requests.
type scriptedTransport struct {
	statuses []int
	bodies   []string
	calls    int
}

func (t *scriptedTransport) RoundTrip(*http.Request) (*http.Response, error) {
	idx := t.calls
	t.calls++
	if idx >= len(t.statuses) {
		idx = len(t.statuses) - 1
	}
	return &http.Response{
		StatusCode: t.statuses[idx],
		Body:       io.NopCloser(strings.NewReader(t.bodies[idx])),
		Header:     make(http.Header),
	}, nil
}

const chatReply = `{"choices":[{"message":{"role":"assistant","content":"Coffee"}}]}`

func newScriptedClient(t *testing.T, transport *scriptedTransport) *openAIClient {
	t.Helper()

	restore := retryOptions
	retryOptions = service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond}
	t.Cleanup(func() { retryOptions = restore })

	client, err := newOpenAIClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	client.httpClient = &http.Client{Transport: transport}
	return client
}

func TestPostRetriesServerErrors(t *testing.T) {
	transport := &scriptedTransport{
		statuses: []int{500, 200},
		bodies:   []string{`{"error":"boom"}`, chatReply},
	}
	client := newScriptedClient(t, transport)

	category, err := client.ClassifyMerchant(context.Background(), "STARBUCKS", []string{"Coffee", "Other"})
	require.NoError(t, err)
	assert.Equal(t, "Coffee", category)
	assert.Equal(t, 2, transport.calls, "a 500 retries once and then succeeds")
}

func TestPostDoesNotRetryClientErrors(t *testing.T) {
	transport := &scriptedTransport{
		statuses: []int{400},
		bodies:   []string{`{"error":"bad request"}`},
	}
	client := newScriptedClient(t, transport)

	_, err := client.ClassifyMerchant(context.Background(), "STARBUCKS", []string{"Coffee"})
	require.Error(t, err)
	assert.Equal(t, 1, transport.calls, "client errors fail immediately")
}
