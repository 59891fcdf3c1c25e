// pkg/expr/parser.go
package expr

import (
	"fmt"
)

// node 表达式语法树节点
type node interface {
	eval(ctx map[string]interface{}) (interface{}, error)
}

// literalNode 字面量（数字、字符串、布尔）
type literalNode struct {
	value interface{}
}

func (n *literalNode) eval(ctx map[string]interface{}) (interface{}, error) {
	return n.value, nil
}

// fieldNode 字段引用，按去空格后的列名查找
type fieldNode struct {
	name string
}

func (n *fieldNode) eval(ctx map[string]interface{}) (interface{}, error) {
	v, ok := ctx[n.name]
	if !ok {
		return nil, fmt.Errorf("未定义字段 %s", n.name)
	}
	if v == nil {
		return nil, fmt.Errorf("字段 %s 无数据", n.name)
	}
	return v, nil
}

// unaryNode 一元运算：not、负号
type unaryNode struct {
	op      string
	operand node
}

func (n *unaryNode) eval(ctx map[string]interface{}) (interface{}, error) {
	v, err := n.operand.eval(ctx)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "not":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("not 的操作数必须是布尔值")
		}
		return !b, nil
	case "-":
		f, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("负号的操作数必须是数字")
		}
		return -f, nil
	}
	return nil, fmt.Errorf("未知一元运算符 %s", n.op)
}

// binaryNode 二元运算
type binaryNode struct {
	op    string
	left  node
	right node
}

func (n *binaryNode) eval(ctx map[string]interface{}) (interface{}, error) {
	// and/or 短路求值
	if n.op == "and" || n.op == "or" {
		lv, err := n.left.eval(ctx)
		if err != nil {
			return nil, err
		}
		lb, ok := lv.(bool)
		if !ok {
			return nil, fmt.Errorf("%s 的操作数必须是布尔值", n.op)
		}
		if n.op == "and" && !lb {
			return false, nil
		}
		if n.op == "or" && lb {
			return true, nil
		}
		rv, err := n.right.eval(ctx)
		if err != nil {
			return nil, err
		}
		rb, ok := rv.(bool)
		if !ok {
			return nil, fmt.Errorf("%s 的操作数必须是布尔值", n.op)
		}
		return rb, nil
	}

	lv, err := n.left.eval(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := n.right.eval(ctx)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "+", "-", "*", "/":
		return evalArithmetic(n.op, lv, rv)
	case "==", "!=", "<", "<=", ">", ">=":
		return evalComparison(n.op, lv, rv)
	}
	return nil, fmt.Errorf("未知二元运算符 %s", n.op)
}

// evalArithmetic 算术运算，操作数必须是数字
func evalArithmetic(op string, lv, rv interface{}) (interface{}, error) {
	lf, lok := toNumber(lv)
	rf, rok := toNumber(rv)
	if !lok || !rok {
		return nil, fmt.Errorf("算术运算 %s 的操作数必须是数字", op)
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("除数为零")
		}
		return lf / rf, nil
	}
	return nil, fmt.Errorf("未知算术运算符 %s", op)
}

// evalComparison 比较运算，数字与数字比、字符串与字符串比
func evalComparison(op string, lv, rv interface{}) (interface{}, error) {
	if lf, lok := toNumber(lv); lok {
		rf, rok := toNumber(rv)
		if !rok {
			return nil, fmt.Errorf("比较运算 %s 的操作数类型不一致", op)
		}
		switch op {
		case "==":
			return lf == rf, nil
		case "!=":
			return lf != rf, nil
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}

	ls, lok := lv.(string)
	rs, rok := rv.(string)
	if lok && rok {
		switch op {
		case "==":
			return ls == rs, nil
		case "!=":
			return ls != rs, nil
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}

	lb, lok := lv.(bool)
	rb, rok := rv.(bool)
	if lok && rok {
		switch op {
		case "==":
			return lb == rb, nil
		case "!=":
			return lb != rb, nil
		}
	}

	return nil, fmt.Errorf("比较运算 %s 的操作数类型不一致", op)
}

// toNumber 把上下文中的值转成float64
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// parser 递归下降语法分析器
//
// 文法（优先级从低到高）：
//
//	expr       := andExpr (("or"|"||") andExpr)*
//	andExpr    := notExpr (("and"|"&&") notExpr)*
//	notExpr    := ("not"|"!") notExpr | comparison
//	comparison := additive (("=="|"!="|"<"|"<="|">"|">=") additive)?
//	additive   := term (("+"|"-") term)*
//	term       := unary (("*"|"/") unary)*
//	unary      := "-" unary | primary
//	primary    := NUMBER | STRING | IDENT | "(" expr ")"
type parser struct {
	tokens []token
	pos    int
}

// parse 解析整个表达式
func parse(input string) (node, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current().kind != tokEOF {
		return nil, fmt.Errorf("位置%d: 表达式末尾存在多余内容 %q", p.current().pos, p.current().text)
	}
	return n, nil
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if p.tokens[p.pos].kind != tokEOF {
		p.pos++
	}
	return tok
}

// matchOp 当前单元匹配任一运算符/关键字时前进并返回true
func (p *parser) matchOp(ops ...string) (string, bool) {
	tok := p.current()
	if tok.kind != tokOp && tok.kind != tokIdent {
		return "", false
	}
	for _, op := range ops {
		if tok.text == op {
			p.advance()
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.matchOp("or", "||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "or", left: left, right: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.matchOp("and", "&&"); !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "and", left: left, right: right}
	}
}

func (p *parser) parseNot() (node, error) {
	if _, ok := p.matchOp("not", "!"); ok {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: "not", operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := p.matchOp("==", "!=", "<", "<=", ">", ">="); ok {
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if _, ok := p.matchOp("-"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: "-", operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.current()
	switch tok.kind {
	case tokNumber:
		p.advance()
		return &literalNode{value: tok.num}, nil
	case tokString:
		p.advance()
		return &literalNode{value: tok.text}, nil
	case tokIdent:
		p.advance()
		switch tok.text {
		case "true", "True":
			return &literalNode{value: true}, nil
		case "false", "False":
			return &literalNode{value: false}, nil
		case "and", "or", "not":
			return nil, fmt.Errorf("位置%d: 关键字 %s 不能作为字段名", tok.pos, tok.text)
		}
		return &fieldNode{name: tok.text}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.current().kind != tokRParen {
			return nil, fmt.Errorf("位置%d: 缺少右括号", p.current().pos)
		}
		p.advance()
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("位置%d: 表达式不完整", tok.pos)
	}
	return nil, fmt.Errorf("位置%d: 意外的词法单元 %q", tok.pos, tok.text)
}
