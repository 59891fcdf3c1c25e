// pkg/expr/lexer.go
package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// tokenKind 词法单元类型
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp     // 运算符
	tokLParen // (
	tokRParen // )
)

// token 词法单元
type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// lexer 表达式词法分析器
type lexer struct {
	input string
	pos   int
}

// twoCharOps 双字符运算符，必须在单字符之前匹配
var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

// singleCharOps 单字符运算符
const singleCharOps = "<>+-*/!"

// tokenize 把表达式切分为词法单元序列
func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

// next 读取下一个词法单元
func (l *lexer) next() (token, error) {
	// 跳过空白
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	// 括号
	if c == '(' {
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	}
	if c == ')' {
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	}

	// 双字符运算符
	if l.pos+1 < len(l.input) {
		two := l.input[l.pos : l.pos+2]
		for _, op := range twoCharOps {
			if two == op {
				l.pos += 2
				return token{kind: tokOp, text: op, pos: start}, nil
			}
		}
	}

	// 单字符运算符
	if strings.ContainsRune(singleCharOps, rune(c)) {
		l.pos++
		return token{kind: tokOp, text: string(c), pos: start}, nil
	}

	// 数字字面量
	if c >= '0' && c <= '9' || c == '.' {
		end := l.pos
		for end < len(l.input) && (l.input[end] >= '0' && l.input[end] <= '9' ||
			l.input[end] == '.' || l.input[end] == '_' ||
			l.input[end] == 'e' || l.input[end] == 'E' ||
			(end > l.pos && (l.input[end] == '+' || l.input[end] == '-') &&
				(l.input[end-1] == 'e' || l.input[end-1] == 'E'))) {
			end++
		}
		text := strings.ReplaceAll(l.input[l.pos:end], "_", "")
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, fmt.Errorf("位置%d: 非法数字 %q", start, l.input[l.pos:end])
		}
		l.pos = end
		return token{kind: tokNumber, text: text, num: n, pos: start}, nil
	}

	// 字符串字面量，单双引号均可
	if c == '\'' || c == '"' {
		quote := c
		end := l.pos + 1
		for end < len(l.input) && l.input[end] != quote {
			end++
		}
		if end >= len(l.input) {
			return token{}, fmt.Errorf("位置%d: 字符串缺少结束引号", start)
		}
		text := l.input[l.pos+1 : end]
		l.pos = end + 1
		return token{kind: tokString, text: text, pos: start}, nil
	}

	// 标识符（字段名或关键字）
	if isIdentStart(rune(c)) {
		end := l.pos
		for end < len(l.input) && isIdentPart(rune(l.input[end])) {
			end++
		}
		text := l.input[l.pos:end]
		l.pos = end
		return token{kind: tokIdent, text: text, pos: start}, nil
	}

	return token{}, fmt.Errorf("位置%d: 无法识别的字符 %q", start, string(c))
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
