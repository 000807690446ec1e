package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	l, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, l.Append([]string{"https://a/1", "https://a/2"}))
	require.NoError(t, l.Append(nil))
	require.NoError(t, l.Close())

	l, err = Open(path, false)
	require.NoError(t, err)
	require.NoError(t, l.Append([]string{"https://a/3"}))
	require.NoError(t, l.Close())

	urls, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a/1", "https://a/2", "https://a/3"}, urls)
}

func TestOpenDropsTornLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://www.otomoto.pl/oferta/a\nhttps://www.otomoto.pl/of"), 0o644))

	l, err := Open(path, false)
	require.NoError(t, err)
	assert.Equal(t, int64(len("https://www.otomoto.pl/of")), l.Dropped)
	require.NoError(t, l.Append([]string{"https://www.otomoto.pl/oferta/b"}))
	require.NoError(t, l.Close())

	urls, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.otomoto.pl/oferta/a", "https://www.otomoto.pl/oferta/b"}, urls)
}

func TestOpenWithoutNewlineKeepsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://half"), 0o644))

	l, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, l.Append([]string{"https://x/1"}))
	require.NoError(t, l.Close())

	urls, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/1"}, urls)
}

func TestOpenTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://old\n"), 0o644))

	l, err := Open(path, true)
	require.NoError(t, err)
	require.NoError(t, l.Append([]string{"https://new"}))
	require.NoError(t, l.Close())

	urls, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://new"}, urls)
}

func TestReadAllSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\n\n  b  \r\n\nc"), 0o644))
	urls, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, urls)
}

func TestDedupe(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "urls.txt")
	out := filepath.Join(dir, "urls_unique.txt")
	require.NoError(t, os.WriteFile(in, []byte("A\nB\nA\nC\nB\n"), 0o644))

	st, err := Dedupe(in, out)
	require.NoError(t, err)
	assert.Equal(t, Stats{Read: 5, Unique: 3, Removed: 2}, st)

	urls, err := ReadAll(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, urls)

	// 再次执行覆盖输出，结果不变
	st, err = Dedupe(in, out)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Unique)
	again, err := ReadAll(out)
	require.NoError(t, err)
	assert.Equal(t, urls, again)
}

func TestDedupeSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\n"), 0o644))
	_, err := Dedupe(path, path)
	assert.ErrorIs(t, err, ErrSamePath)
}

func TestDedupeMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Dedupe(filepath.Join(dir, "nope.txt"), filepath.Join(dir, "out.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
