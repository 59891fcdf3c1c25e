// pkg/expr/expr.go
// 预警条件表达式引擎
//
// 只支持受限文法：比较、布尔与或非、四则运算、数字/字符串字面量、字段引用。
// 求值无副作用，不提供任何函数调用、索引或I/O能力。
// 字段绑定前去掉列名中的空格，"Market Cap" 在表达式中写作 MarketCap。
package expr

import (
	"fmt"
	"strings"
)

// Evaluate 对一行指标数据求值
// 表达式结果必须是布尔值，其他情况一律返回错误
func Evaluate(expression string, row map[string]interface{}) (bool, error) {
	n, err := parse(expression)
	if err != nil {
		return false, fmt.Errorf("表达式语法错误: %w", err)
	}

	ctx := make(map[string]interface{}, len(row))
	for k, v := range row {
		ctx[strings.ReplaceAll(k, " ", "")] = v
	}

	v, err := n.eval(ctx)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("表达式结果不是布尔值: %v", v)
	}
	return b, nil
}

// Validate 只做语法检查，规则保存前调用
func Validate(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return fmt.Errorf("表达式不能为空")
	}
	if _, err := parse(expression); err != nil {
		return fmt.Errorf("表达式语法错误: %w", err)
	}
	return nil
}
