// pkg/collector/quoteapi.go
package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"MoonSniper/pkg/model"
)

// QuoteAPIClient 行情指标API客户端
// 指标计算（RSI、MACD、均量等）由数据服务完成，这里只取现成的快照表
type QuoteAPIClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// quoteRequest 行情API请求结构
type quoteRequest struct {
	Token   string   `json:"token"`
	Tickers []string `json:"tickers"`
}

// quoteResponse 行情API响应结构
// Fields 是列名（可能带空格，如 "Market Cap"），Items 每行与列名对齐
type quoteResponse struct {
	Code   int             `json:"code"`
	Msg    string          `json:"msg"`
	Fields []string        `json:"fields"`
	Items  [][]interface{} `json:"items"`
}

// NewQuoteAPIClient 创建行情客户端
func NewQuoteAPIClient(apiKey, baseURL string, timeout time.Duration) *QuoteAPIClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QuoteAPIClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchMetrics 拉取指定股票的指标快照表
func (c *QuoteAPIClient) FetchMetrics(tickers []string) (model.MetricsTable, error) {
	req := quoteRequest{
		Token:   c.APIKey,
		Tickers: tickers,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.BaseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("执行HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API返回非200状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	var quoteResp quoteResponse
	if err := json.Unmarshal(body, &quoteResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	if quoteResp.Code != 0 {
		return nil, fmt.Errorf("API返回错误: %s", quoteResp.Msg)
	}

	return rowsFromResponse(&quoteResp)
}

// rowsFromResponse 把列式响应转成指标行，缺少Ticker列的行丢弃
func rowsFromResponse(resp *quoteResponse) (model.MetricsTable, error) {
	if len(resp.Fields) == 0 {
		return nil, fmt.Errorf("响应缺少字段定义")
	}

	table := make(model.MetricsTable, 0, len(resp.Items))
	for _, item := range resp.Items {
		if len(item) != len(resp.Fields) {
			continue
		}
		row := make(model.MetricsRow, len(resp.Fields))
		for i, field := range resp.Fields {
			row[field] = item[i]
		}
		if row.Ticker() == "" {
			continue
		}
		table = append(table, row)
	}
	return table, nil
}
