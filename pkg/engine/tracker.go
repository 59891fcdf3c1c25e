// pkg/engine/tracker.go
package engine

import (
	"fmt"
	"log"
	"sort"

	"MoonSniper/pkg/expr"
	"MoonSniper/pkg/model"
)

// EvalError 规则表达式求值失败
// 规则保留原样，错误只记日志，不影响同一轮的其他规则
type EvalError struct {
	Ticker     string
	Expression string
	Err        error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("[Alert Error] %s -> %v", e.Ticker, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// passKey 单轮去重键：同一 (股票, 表达式) 一轮内只派发一次
type passKey struct {
	ticker     string
	expression string
}

// TriggerTracker 触发状态跟踪器，生命周期为一轮扫描
type TriggerTracker struct {
	fired map[passKey]bool
}

// NewTriggerTracker 创建跟踪器
func NewTriggerTracker() *TriggerTracker {
	return &TriggerTracker{
		fired: make(map[passKey]bool),
	}
}

// EvaluateDocument 对整个规则文档执行一轮评估
// 就地修改文档：触发的Ticker规则被移除，Scanner规则追加triggered记录
// 返回待派发的触发列表，顺序确定
func (t *TriggerTracker) EvaluateDocument(doc *model.AlertDocument, table model.MetricsTable) []model.Trigger {
	triggers := make([]model.Trigger, 0)
	triggers = append(triggers, t.evaluateTickers(doc, table)...)
	triggers = append(triggers, t.evaluateScanners(doc, table)...)
	return triggers
}

// evaluateTickers 评估Ticker规则：触发即消费
func (t *TriggerTracker) evaluateTickers(doc *model.AlertDocument, table model.MetricsTable) []model.Trigger {
	var triggers []model.Trigger

	// map遍历顺序随机，按股票代码排序保证每轮处理顺序确定
	tickers := make([]string, 0, len(doc.Tickers))
	for ticker := range doc.Tickers {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		row := table.FindRow(ticker)
		if row == nil {
			// 指标表中没有这只股票，全部规则保留
			continue
		}

		rules := doc.Tickers[ticker]
		retained := make([]model.AlertRule, 0, len(rules))
		for _, rule := range rules {
			ok, err := expr.Evaluate(rule.Expression, row)
			if err != nil {
				log.Println((&EvalError{Ticker: ticker, Expression: rule.Expression, Err: err}).Error())
				retained = append(retained, rule)
				continue
			}

			key := passKey{ticker: ticker, expression: rule.Expression}
			if ok && !t.fired[key] {
				t.fired[key] = true
				triggers = append(triggers, model.Trigger{Rule: rule, Row: row, Ticker: ticker})
				// 触发即消费，不放回列表
				continue
			}
			retained = append(retained, rule)
		}

		// 规则清空后删除整个条目，保证tickers里没有空列表
		if len(retained) > 0 {
			doc.Tickers[ticker] = retained
		} else {
			delete(doc.Tickers, ticker)
		}
	}

	return triggers
}

// evaluateScanners 评估Scanner规则：按行扫描全市场，triggered记录永不自动清除
func (t *TriggerTracker) evaluateScanners(doc *model.AlertDocument, table model.MetricsTable) []model.Trigger {
	var triggers []model.Trigger

	for i := range doc.Scanners {
		rule := &doc.Scanners[i]
		for _, row := range table {
			ok, err := expr.Evaluate(rule.Expression, row)
			if err != nil {
				log.Println((&EvalError{Ticker: row.Ticker(), Expression: rule.Expression, Err: err}).Error())
				continue
			}
			if !ok {
				continue
			}

			ticker := row.Ticker()
			if rule.HasTriggered(ticker) {
				continue
			}
			rule.MarkTriggered(ticker)
			triggers = append(triggers, model.Trigger{Rule: *rule, Row: row, Ticker: ticker, Scanner: true})
		}
	}

	return triggers
}
