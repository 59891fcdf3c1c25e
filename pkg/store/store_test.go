package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoonSniper/pkg/model"
)

func TestLoad_MissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "alerts.json"))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.NotNil(t, doc.Tickers)
	assert.Empty(t, doc.Tickers)
	assert.Empty(t, doc.Scanners)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(path)
	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Tickers)
	assert.Empty(t, doc.Scanners)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "alerts", "alerts.json"))

	doc := model.NewAlertDocument()
	doc.Tickers["AAPL"] = []model.AlertRule{
		{
			ID:         "aapl_desktop1",
			Expression: "RSI < 30",
			Message:    "AAPL 超卖",
			Channel:    model.ChannelDesktop,
		},
		{
			ID:         "aapl_webhook1",
			Expression: "Price > 200",
			Message:    "AAPL 破位",
			Channel:    model.ChannelWebhook,
			Recipients: []string{"https://discord.test/hook"},
			Username:   "Sniper Bot",
		},
	}
	doc.Scanners = []model.AlertRule{
		{
			ID:         "scanner_email1",
			Expression: "Volume > 1000000",
			Message:    "放量",
			Channel:    model.ChannelEmail,
			Triggered:  []string{"TSLA", "NVDA"},
		},
	}

	require.NoError(t, s.Save(doc))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, doc.Tickers, loaded.Tickers)
	assert.Equal(t, doc.Scanners, loaded.Scanners)
}

func TestSave_OverwritesPrevious(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "alerts.json"))

	doc := model.NewAlertDocument()
	doc.Tickers["AAPL"] = []model.AlertRule{{ID: "aapl_desktop1", Expression: "RSI < 30", Channel: model.ChannelDesktop}}
	require.NoError(t, s.Save(doc))

	delete(doc.Tickers, "AAPL")
	require.NoError(t, s.Save(doc))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Tickers)
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "alerts.json"))
	require.NoError(t, s.Save(model.NewAlertDocument()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "alerts.json", entries[0].Name())
}
