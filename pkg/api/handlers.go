package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"MoonSniper/pkg/database"
	"MoonSniper/pkg/expr"
	"MoonSniper/pkg/model"
	"MoonSniper/pkg/store"
)

// Handlers API处理程序
type Handlers struct {
	store *store.Store
	db    *database.Database // 可为nil，历史接口返回503

	// 同进程内串行化文档读写；跨进程并发写由单写者假设兜底
	mu sync.Mutex
}

// NewHandlers 创建新的API处理程序
func NewHandlers(ruleStore *store.Store, db *database.Database) *Handlers {
	return &Handlers{
		store: ruleStore,
		db:    db,
	}
}

// ruleRequest 创建/更新规则的请求体
type ruleRequest struct {
	Expression string   `json:"expression" binding:"required"`
	Message    string   `json:"message" binding:"required"`
	Channel    string   `json:"channel" binding:"required"`
	Recipients []string `json:"recipients"`
	Username   string   `json:"username"`
}

// validate 保存前检查，表达式必须能通过受限文法解析
func (r *ruleRequest) validate() (model.Channel, string) {
	channel := model.Channel(r.Channel)
	if !channel.IsValid() {
		return "", "channel必须是 desktop、webhook 或 email"
	}
	if err := expr.Validate(r.Expression); err != nil {
		return "", err.Error()
	}
	return channel, ""
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GetAlerts 返回完整规则文档
func (h *Handlers) GetAlerts(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// CreateTickerRule 创建Ticker规则
func (h *Handlers) CreateTickerRule(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	channel, msg := req.validate()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rule := model.AlertRule{
		ID:         doc.GenerateRuleID(ticker, channel),
		Expression: req.Expression,
		Message:    req.Message,
		Channel:    channel,
		Recipients: req.Recipients,
		Username:   req.Username,
	}
	doc.Tickers[ticker] = append(doc.Tickers[ticker], rule)

	if err := h.store.Save(doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// CreateScannerRule 创建Scanner规则
func (h *Handlers) CreateScannerRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	channel, msg := req.validate()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rule := model.AlertRule{
		ID:         doc.GenerateRuleID("", channel),
		Expression: req.Expression,
		Message:    req.Message,
		Channel:    channel,
		Recipients: req.Recipients,
		Username:   req.Username,
	}
	doc.Scanners = append(doc.Scanners, rule)

	if err := h.store.Save(doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// UpdateTickerRule 按ID更新Ticker规则，ID保持不变
func (h *Handlers) UpdateTickerRule(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))
	id := c.Param("id")

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	channel, msg := req.validate()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	idx := doc.FindTickerRule(ticker, id)
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "规则不存在"})
		return
	}

	doc.Tickers[ticker][idx] = model.AlertRule{
		ID:         id,
		Expression: req.Expression,
		Message:    req.Message,
		Channel:    channel,
		Recipients: req.Recipients,
		Username:   req.Username,
	}

	if err := h.store.Save(doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc.Tickers[ticker][idx])
}

// UpdateScannerRule 按ID更新Scanner规则
// 整体替换，triggered记录被清空，规则重新对全市场生效
func (h *Handlers) UpdateScannerRule(c *gin.Context) {
	id := c.Param("id")

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	channel, msg := req.validate()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	idx := doc.FindScannerRule(id)
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "规则不存在"})
		return
	}

	doc.Scanners[idx] = model.AlertRule{
		ID:         id,
		Expression: req.Expression,
		Message:    req.Message,
		Channel:    channel,
		Recipients: req.Recipients,
		Username:   req.Username,
	}

	if err := h.store.Save(doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc.Scanners[idx])
}

// DeleteTickerRule 按ID删除Ticker规则，列表清空后删除整个条目
func (h *Handlers) DeleteTickerRule(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))
	id := c.Param("id")

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	idx := doc.FindTickerRule(ticker, id)
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "规则不存在"})
		return
	}

	rules := doc.Tickers[ticker]
	doc.Tickers[ticker] = append(rules[:idx], rules[idx+1:]...)
	if len(doc.Tickers[ticker]) == 0 {
		delete(doc.Tickers, ticker)
	}

	if err := h.store.Save(doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteScannerRule 按ID删除Scanner规则
func (h *Handlers) DeleteScannerRule(c *gin.Context) {
	id := c.Param("id")

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	idx := doc.FindScannerRule(id)
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "规则不存在"})
		return
	}

	doc.Scanners = append(doc.Scanners[:idx], doc.Scanners[idx+1:]...)

	if err := h.store.Save(doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetAlertHistory 查询预警历史
func (h *Handlers) GetAlertHistory(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "历史库未配置"})
		return
	}

	ticker := strings.ToUpper(c.Query("ticker"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := h.db.GetAlertHistory(ticker, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}
