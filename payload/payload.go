package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// DefaultScriptID Next.js 页面把初始数据放在这个 script 里
const DefaultScriptID = "__NEXT_DATA__"

var (
	ErrNotFound = errors.New("payload: script block not found")
	ErrInvalid  = errors.New("payload: script block is not valid json")
)

// Locator 在 HTML 中定位内嵌的 JSON 数据块
type Locator struct {
	re *regexp.Regexp
}

func NewLocator(scriptID string) *Locator {
	if scriptID == "" {
		scriptID = DefaultScriptID
	}
	id := regexp.QuoteMeta(scriptID)
	re := regexp.MustCompile(`(?is)<script[^>]*\sid\s*=\s*["']` + id + `["'][^>]*>(.*?)</script>`)
	return &Locator{re: re}
}

// Locate 返回数据块的原始文本，不是合法 JSON 时返回 ErrInvalid
func (l *Locator) Locate(doc []byte) (json.RawMessage, error) {
	m := l.re.FindSubmatch(doc)
	if m == nil {
		return nil, ErrNotFound
	}
	raw := bytes.TrimSpace(m[1])
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	if !json.Valid(raw) {
		return nil, ErrInvalid
	}
	return raw, nil
}

// Decode 解析 JSON，数字保留原样
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// Select 依次尝试 lookups，返回第一个非空结果的原始字节
func Select(raw json.RawMessage, lookups []Lookup) (value json.RawMessage, name string, ok bool) {
	for _, l := range lookups {
		found, hit := l.Find(raw)
		if !hit {
			continue
		}
		if v, err := Decode(found); err == nil && NonEmpty(v) {
			return found, l.Name(), true
		}
	}
	return nil, "", false
}

// NonEmpty null、空串、空对象、空数组、false 和 0 都视为空
func NonEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	}
	return true
}
