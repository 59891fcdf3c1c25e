package collector

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWatchlist(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadWatchlistTickers_MergesAndUppercases(t *testing.T) {
	dir := t.TempDir()
	writeWatchlist(t, dir, "tech.txt", "aapl\nMSFT\n\n nvda \n")
	writeWatchlist(t, dir, "ev.txt", "TSLA\nAAPL\n")
	writeWatchlist(t, dir, "notes.md", "IGNORED\n")

	tickers, err := LoadWatchlistTickers(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA", "TSLA"}, tickers)
}

func TestLoadWatchlistTickers_EmptyIsError(t *testing.T) {
	dir := t.TempDir()
	writeWatchlist(t, dir, "empty.txt", "\n\n")

	_, err := LoadWatchlistTickers(dir)
	assert.Error(t, err)
}

func TestQuoteAPIClient_FetchMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 0,
			"fields": ["Ticker", "Price", "RSI", "Market Cap"],
			"items": [
				["AAPL", 182.5, 25.0, 2800000000000],
				["MSFT", 410.0, 55.0, 3100000000000]
			]
		}`))
	}))
	defer srv.Close()

	client := NewQuoteAPIClient("token", srv.URL, 5*time.Second)
	table, err := client.FetchMetrics([]string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "AAPL", table[0].Ticker())
	assert.Equal(t, 182.5, table[0]["Price"])
	// 列名原样保留，带空格
	assert.Equal(t, 2.8e12, table[0]["Market Cap"])
}

func TestQuoteAPIClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 40001, "msg": "token无效"}`))
	}))
	defer srv.Close()

	client := NewQuoteAPIClient("bad", srv.URL, 5*time.Second)
	_, err := client.FetchMetrics([]string{"AAPL"})
	assert.Error(t, err)
}

func TestWatchlistFetcher_FetchAll(t *testing.T) {
	dir := t.TempDir()
	writeWatchlist(t, dir, "main.txt", "AAPL\n")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"fields":["Ticker","Price"],"items":[["AAPL",182.5]]}`))
	}))
	defer srv.Close()

	fetcher, err := NewWatchlistFetcher(NewQuoteAPIClient("", srv.URL, 5*time.Second), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, fetcher.Tickers())

	table, err := fetcher.FetchAll()
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "AAPL", table[0].Ticker())
}

func TestWatchlistFetcher_Reload(t *testing.T) {
	dir := t.TempDir()
	writeWatchlist(t, dir, "main.txt", "AAPL\n")

	fetcher, err := NewWatchlistFetcher(NewQuoteAPIClient("", "http://unused", time.Second), dir)
	require.NoError(t, err)

	writeWatchlist(t, dir, "main.txt", "AAPL\nTSLA\n")
	require.NoError(t, fetcher.Reload())
	assert.Equal(t, []string{"AAPL", "TSLA"}, fetcher.Tickers())
}
