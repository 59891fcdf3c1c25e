package model

// MetricsRow 单只股票的当前指标快照
// 键为数据源的原始列名，可能带空格（如 "Market Cap"、"Avg Vol"）
type MetricsRow map[string]interface{}

// Ticker 取出股票代码，缺失时返回空串
func (r MetricsRow) Ticker() string {
	if v, ok := r["Ticker"].(string); ok {
		return v
	}
	return ""
}

// MetricsTable 全部股票的指标快照，行顺序即评估顺序
type MetricsTable []MetricsRow

// FindRow 按股票代码查找行，未找到返回nil
func (t MetricsTable) FindRow(ticker string) MetricsRow {
	for _, row := range t {
		if row.Ticker() == ticker {
			return row
		}
	}
	return nil
}
