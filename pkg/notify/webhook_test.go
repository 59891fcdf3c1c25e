package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoonSniper/pkg/model"
)

func webhookTrigger(recipients []string) model.Trigger {
	return model.Trigger{
		Rule: model.AlertRule{
			ID:         "aapl_webhook1",
			Expression: "RSI < 30",
			Message:    "AAPL 超卖",
			Channel:    model.ChannelWebhook,
			Recipients: recipients,
			Username:   "Sniper Bot",
		},
		Ticker: "AAPL",
	}
}

func TestWebhook_PayloadAndSuccess(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(nil, "Moon Sniper")
	records := n.Notify(webhookTrigger([]string{srv.URL}))

	require.Len(t, records, 1)
	assert.Equal(t, "sent", records[0].Status)
	assert.Equal(t, srv.URL, records[0].Recipient)
	assert.Equal(t, "AAPL 超卖", got.Content)
	assert.Equal(t, "Sniper Bot", got.Username)
}

func TestWebhook_FailureDoesNotBlockOthers(t *testing.T) {
	// 第一个URL返回500，第二个返回204，互不影响
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer good.Close()

	n := NewWebhookNotifier(nil, "Moon Sniper")
	records := n.Notify(webhookTrigger([]string{bad.URL, good.URL}))

	require.Len(t, records, 2)
	assert.Equal(t, "failed", records[0].Status)
	assert.Contains(t, records[0].Error, "500")
	assert.Equal(t, "sent", records[1].Status)
}

func TestWebhook_Status200AlsoSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(nil, "Moon Sniper")
	records := n.Notify(webhookTrigger([]string{srv.URL}))

	require.Len(t, records, 1)
	assert.Equal(t, "sent", records[0].Status)
}

func TestWebhook_DefaultURLsAndUsername(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	trigger := webhookTrigger(nil)
	trigger.Rule.Username = ""

	n := NewWebhookNotifier([]string{srv.URL}, "Moon Sniper")
	records := n.Notify(trigger)

	require.Len(t, records, 1)
	assert.Equal(t, "sent", records[0].Status)
	assert.Equal(t, "Moon Sniper", got.Username)
}

func TestWebhook_NoURLs(t *testing.T) {
	n := NewWebhookNotifier(nil, "Moon Sniper")
	records := n.Notify(webhookTrigger(nil))
	assert.Empty(t, records)
}
