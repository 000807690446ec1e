package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nrich-sunny/listingcrawler/dedup"
	"github.com/Nrich-sunny/listingcrawler/extensions"
)

// Ledger 只追加的 URL 账本，每行一个 URL
type Ledger struct {
	path string
	f    *os.File
	// Dropped 打开时截掉的残缺尾行字节数
	Dropped int64
}

// Open 以追加方式打开账本。truncate 为真时清空已有内容，对应从第 0 页重新开始；
// 否则截掉上次崩溃留下的半行，避免后续追加的 URL 与之粘连
func Open(path string, truncate bool) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	flag := os.O_CREATE | os.O_RDWR | os.O_APPEND
	if truncate {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	l := &Ledger{path: path, f: f}
	if err := l.repair(); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) repair() error {
	info, err := l.f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	keep, err := extensions.CompleteLength(l.f, size)
	if err != nil {
		return fmt.Errorf("scan ledger: %w", err)
	}
	if keep == size {
		return nil
	}
	if err := l.f.Truncate(keep); err != nil {
		return fmt.Errorf("repair ledger: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}
	l.Dropped = size - keep
	return nil
}

// Append 写入一批 URL 并 fsync，返回后这批 URL 已经落盘
func (l *Ledger) Append(urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if _, err := l.f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}
	return nil
}

func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) Close() error {
	return l.f.Close()
}

// ReadAll 读出全部 URL，忽略空行与首尾空白
func ReadAll(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

// Write 整体重写文件
func Write(path string, urls []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, u := range urls {
		w.WriteString(u)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Stats 去重统计
type Stats struct {
	Read    int
	Unique  int
	Removed int
}

var ErrSamePath = errors.New("ledger: dedupe input and output must differ")

// Dedupe 读取 in，去重后整体写入 out。重复执行结果相同
func Dedupe(in, out string) (Stats, error) {
	var st Stats
	ai, err1 := filepath.Abs(in)
	ao, err2 := filepath.Abs(out)
	if err := errors.Join(err1, err2); err != nil {
		return st, err
	}
	if ai == ao {
		return st, ErrSamePath
	}
	urls, err := ReadAll(in)
	if err != nil {
		return st, fmt.Errorf("read ledger: %w", err)
	}
	uniq := dedup.Unique(urls)
	if err := Write(out, uniq); err != nil {
		return st, fmt.Errorf("write deduplicated ledger: %w", err)
	}
	st.Read = len(urls)
	st.Unique = len(uniq)
	st.Removed = st.Read - st.Unique
	return st, nil
}
