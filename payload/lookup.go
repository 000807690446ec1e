package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/robertkrimen/otto"
)

// Lookup 从原始 JSON 中取出一个子对象，返回的字节保持源文本的键顺序
type Lookup interface {
	Name() string
	Find(raw json.RawMessage) (json.RawMessage, bool)
}

// KeyPath 点分隔的路径，例如 props.pageProps.ad。数组下标写成数字
type KeyPath string

func (p KeyPath) Name() string { return string(p) }

func (p KeyPath) Find(raw json.RawMessage) (json.RawMessage, bool) {
	cur := json.RawMessage(bytes.TrimSpace(raw))
	if p == "" {
		return cur, len(cur) > 0
	}
	for _, key := range strings.Split(string(p), ".") {
		if len(cur) == 0 {
			return nil, false
		}
		switch cur[0] {
		case '{':
			var node map[string]json.RawMessage
			if err := json.Unmarshal(cur, &node); err != nil {
				return nil, false
			}
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			cur = next
		case '[':
			var node []json.RawMessage
			if err := json.Unmarshal(cur, &node); err != nil {
				return nil, false
			}
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
		cur = bytes.TrimSpace(cur)
	}
	return cur, true
}

// Script 用 JavaScript 表达式取值，表达式中可以使用变量 data，
// 例如 `data.props.pageProps.advert || data.props.pageProps.ad`
type Script struct {
	Expr string
}

func (s Script) Name() string { return "js:" + s.Expr }

const scriptWrapper = `(function () {
	var data = JSON.parse(raw);
	var r = (%s);
	return r === undefined ? undefined : JSON.stringify(r);
})()`

func (s Script) Find(raw json.RawMessage) (result json.RawMessage, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = nil, false
		}
	}()
	vm := otto.New()
	if err := vm.Set("raw", string(raw)); err != nil {
		return nil, false
	}
	out, err := vm.Run(fmt.Sprintf(scriptWrapper, s.Expr))
	if err != nil || out.IsUndefined() || out.IsNull() {
		return nil, false
	}
	text, err := out.ToString()
	if err != nil || !json.Valid([]byte(text)) {
		return nil, false
	}
	return json.RawMessage(text), true
}

// ParseLookup 配置中的查找规则：以 "js:" 开头的是脚本，其余是路径
func ParseLookup(s string) Lookup {
	if expr, ok := strings.CutPrefix(s, "js:"); ok {
		return Script{Expr: strings.TrimSpace(expr)}
	}
	return KeyPath(s)
}

func ParseLookups(exprs []string) []Lookup {
	lookups := make([]Lookup, 0, len(exprs))
	for _, s := range exprs {
		lookups = append(lookups, ParseLookup(s))
	}
	return lookups
}
