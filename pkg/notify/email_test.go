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

func emailTrigger(recipients []string) model.Trigger {
	return model.Trigger{
		Rule: model.AlertRule{
			ID:         "scanner_email1",
			Expression: "Volume > 1000000",
			Message:    "放量突破",
			Channel:    model.ChannelEmail,
			Recipients: recipients,
		},
		Ticker: "TSLA",
	}
}

func TestEmail_SkippedWithoutAPIKey(t *testing.T) {
	n := NewEmailNotifier("", "default@test.com", "Moon Sniper", "alerts@test.com")
	records := n.Notify(emailTrigger(nil))

	require.Len(t, records, 1)
	assert.Equal(t, "skipped", records[0].Status)
	assert.Equal(t, "default@test.com", records[0].Recipient)
	assert.Empty(t, records[0].Error)
}

func TestEmail_SendSuccess(t *testing.T) {
	var got brevoRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewEmailNotifier("key-123", "", "Moon Sniper", "alerts@test.com")
	n.endpoint = srv.URL

	records := n.Notify(emailTrigger([]string{"user@test.com"}))

	require.Len(t, records, 1)
	assert.Equal(t, "sent", records[0].Status)
	assert.Equal(t, "key-123", apiKey)
	assert.Equal(t, "alerts@test.com", got.Sender.Email)
	assert.Equal(t, "Moon Sniper", got.Sender.Name)
	require.Len(t, got.To, 1)
	assert.Equal(t, "user@test.com", got.To[0].Email)
	assert.Equal(t, "放量突破", got.TextContent)
}

func TestEmail_Non201IsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewEmailNotifier("key-123", "", "Moon Sniper", "alerts@test.com")
	n.endpoint = srv.URL

	records := n.Notify(emailTrigger([]string{"user@test.com"}))

	require.Len(t, records, 1)
	assert.Equal(t, "failed", records[0].Status)
	assert.Contains(t, records[0].Error, "401")
}

func TestEmail_PerRecipientIsolation(t *testing.T) {
	// 第一封失败不影响第二封
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		if count == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewEmailNotifier("key-123", "", "Moon Sniper", "alerts@test.com")
	n.endpoint = srv.URL

	records := n.Notify(emailTrigger([]string{"a@test.com", "b@test.com"}))

	require.Len(t, records, 2)
	assert.Equal(t, "failed", records[0].Status)
	assert.Equal(t, "sent", records[1].Status)
}

func TestEmail_NoRecipients(t *testing.T) {
	n := NewEmailNotifier("key-123", "", "Moon Sniper", "alerts@test.com")
	records := n.Notify(emailTrigger(nil))
	assert.Empty(t, records)
}
