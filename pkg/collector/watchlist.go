// pkg/collector/watchlist.go
package collector

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadWatchlistTickers 读取目录下所有 *.txt 自选股文件，合并去重
// 每行一个股票代码，统一转大写；没有任何代码时返回错误
func LoadWatchlistTickers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取自选股目录失败: %w", err)
	}

	set := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("打开自选股文件 %s 失败: %w", entry.Name(), err)
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			t := strings.ToUpper(strings.TrimSpace(scanner.Text()))
			if t != "" {
				set[t] = true
			}
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("读取自选股文件 %s 失败: %w", entry.Name(), err)
		}
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("自选股目录 %s 中没有任何股票代码", dir)
	}

	tickers := make([]string, 0, len(set))
	for t := range set {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}
