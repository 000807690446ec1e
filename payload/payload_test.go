package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nextPage = `<html><head>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"ad":{},"data":{"id":"6123","price":{"value":45900,"currency":"PLN"},"tags":["a","b"]}}}}
</script></head><body></body></html>`

func TestLocate(t *testing.T) {
	raw, err := NewLocator("").Locate([]byte(nextPage))
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))

	_, err = NewLocator("").Locate([]byte(`<script id="other">{}</script>`))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewLocator("").Locate([]byte(`<script id="__NEXT_DATA__">{"props":</script>`))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLocateRequiresIDAttribute(t *testing.T) {
	doc := `<script data-id="__NEXT_DATA__">{"wrong":1}</script>
<script type="application/json"
	id="__NEXT_DATA__">{"right":1}</script>`
	raw, err := NewLocator("").Locate([]byte(doc))
	require.NoError(t, err)
	assert.JSONEq(t, `{"right":1}`, string(raw))

	_, err = NewLocator("").Locate([]byte(`<script data-id="__NEXT_DATA__">{"a":1}</script>`))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocateCustomID(t *testing.T) {
	doc := `<script type="application/json" id='state.v1'>{"a":1}</script>`
	raw, err := NewLocator("state.v1").Locate([]byte(doc))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))

	_, err = NewLocator("statexv1").Locate([]byte(doc))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectSkipsEmptyCandidates(t *testing.T) {
	raw, err := NewLocator("").Locate([]byte(nextPage))
	require.NoError(t, err)

	lookups := ParseLookups([]string{"props.pageProps.ad", "props.pageProps.data", "props.pageProps"})
	got, name, ok := Select(raw, lookups)
	require.True(t, ok)
	assert.Equal(t, "props.pageProps.data", name)
	assert.Equal(t, `{"id":"6123","price":{"value":45900,"currency":"PLN"},"tags":["a","b"]}`, string(got))
}

func TestSelectNothing(t *testing.T) {
	_, _, ok := Select([]byte(`{"props":{}}`), []Lookup{KeyPath("props.pageProps.ad"), KeyPath("props")})
	assert.False(t, ok)
}

func TestKeyPathIndex(t *testing.T) {
	v := json.RawMessage(`{"items":[{"id":1},{"id":2, "name": "b"}]}`)
	got, ok := KeyPath("items.1.id").Find(v)
	require.True(t, ok)
	assert.Equal(t, "2", string(got))

	got, ok = KeyPath("items.1").Find(v)
	require.True(t, ok)
	assert.Equal(t, `{"id":2, "name": "b"}`, string(got))

	_, ok = KeyPath("items.5").Find(v)
	assert.False(t, ok)
	_, ok = KeyPath("items.id").Find(v)
	assert.False(t, ok)
}

func TestScriptLookup(t *testing.T) {
	v := json.RawMessage(`{"props":{"pageProps":{"advert":null,"ad":{"title":"Audi","km":120}}}}`)

	got, ok := ParseLookup("js: data.props.pageProps.advert || data.props.pageProps.ad").Find(v)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"Audi","km":120}`, string(got))

	_, ok = Script{Expr: "data.props.missing"}.Find(v)
	assert.False(t, ok)

	_, ok = Script{Expr: "data.props.missing.deeper"}.Find(v)
	assert.False(t, ok)

	_, ok = Script{Expr: "((("}.Find(v)
	assert.False(t, ok)
}

func TestNonEmpty(t *testing.T) {
	for _, v := range []any{nil, "", false, map[string]any{}, []any{}, json.Number("0")} {
		assert.False(t, NonEmpty(v), "%#v", v)
	}
	for _, v := range []any{"x", true, map[string]any{"a": 1}, []any{1}, json.Number("3")} {
		assert.True(t, NonEmpty(v), "%#v", v)
	}
}
