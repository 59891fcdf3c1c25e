// pkg/collector/fetcher.go
package collector

import (
	"fmt"
	"log"
	"sync"

	"MoonSniper/pkg/model"
)

// WatchlistFetcher 按自选股清单拉取指标表
// 股票清单启动时加载一次并缓存，由调度器定期刷新
type WatchlistFetcher struct {
	client        *QuoteAPIClient
	watchlistsDir string

	mu      sync.RWMutex
	tickers []string
}

// NewWatchlistFetcher 创建指标供给器并加载初始清单
func NewWatchlistFetcher(client *QuoteAPIClient, watchlistsDir string) (*WatchlistFetcher, error) {
	f := &WatchlistFetcher{
		client:        client,
		watchlistsDir: watchlistsDir,
	}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload 重新读取自选股清单
func (f *WatchlistFetcher) Reload() error {
	tickers, err := LoadWatchlistTickers(f.watchlistsDir)
	if err != nil {
		return fmt.Errorf("刷新自选股清单失败: %w", err)
	}

	f.mu.Lock()
	f.tickers = tickers
	f.mu.Unlock()

	log.Printf("[Collector] 自选股清单加载完成，共 %d 只股票", len(tickers))
	return nil
}

// Tickers 返回当前清单副本
func (f *WatchlistFetcher) Tickers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.tickers))
	copy(out, f.tickers)
	return out
}

// FetchAll 拉取整个清单的指标快照表
func (f *WatchlistFetcher) FetchAll() (model.MetricsTable, error) {
	tickers := f.Tickers()
	if len(tickers) == 0 {
		return nil, fmt.Errorf("自选股清单为空")
	}
	return f.client.FetchMetrics(tickers)
}
