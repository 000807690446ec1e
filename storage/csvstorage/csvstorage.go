package csvstorage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cerrors "cloudeng.io/errors"
	"github.com/Nrich-sunny/listingcrawler/extensions"
	"github.com/Nrich-sunny/listingcrawler/storage"
	"go.uber.org/zap"
)

var header = []string{"url", "payload"}

// Store 以 CSV 保存记录，两列 url,payload。payload 为空表示提取失败
type Store struct {
	path   string
	f      *os.File
	w      *csv.Writer
	size   int64
	seen   map[string]struct{}
	logger *zap.Logger
}

// Open 打开或创建记录文件。上次崩溃留下的半行会被截掉
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	s := &Store{path: path, f: f, seen: map[string]struct{}{}, logger: logger}
	if err := s.init(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	info, err := s.f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size > 0 {
		keep, err := extensions.CompleteLength(s.f, size)
		if err != nil {
			return err
		}
		if keep < size {
			s.logger.Warn("dropping partial trailing row", zap.String("path", s.path), zap.Int64("bytes", size-keep))
			if err := s.f.Truncate(keep); err != nil {
				return fmt.Errorf("repair record store: %w", err)
			}
			size = keep
		}
	}

	if size == 0 {
		if err := s.writeRow(header); err != nil {
			return err
		}
	} else {
		if _, err := s.f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := scan(s.f, func(r storage.RawRecord) error {
			s.seen[r.URL] = struct{}{}
			return nil
		}); err != nil {
			return err
		}
	}
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	s.size = end
	s.w = csv.NewWriter(s.f)
	return nil
}

func (s *Store) AlreadyProcessed(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.seen))
	for u := range s.seen {
		out[u] = struct{}{}
	}
	return out, nil
}

// Append 写入一行并 fsync。同一个 url 只写一次
func (s *Store) Append(ctx context.Context, r storage.RawRecord) error {
	if _, ok := s.seen[r.URL]; ok {
		return nil
	}
	cell := ""
	if !r.Failed() {
		var buf bytes.Buffer
		if err := json.Compact(&buf, r.Payload); err != nil {
			return fmt.Errorf("compact payload for %s: %w", r.URL, err)
		}
		cell = buf.String()
	}
	if err := s.writeRow([]string{r.URL, cell}); err != nil {
		return err
	}
	s.seen[r.URL] = struct{}{}
	return nil
}

func (s *Store) writeRow(row []string) error {
	w := s.w
	if w == nil {
		w = csv.NewWriter(s.f)
	}
	err := w.Write(row)
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if err == nil {
		err = s.f.Sync()
	}
	if err != nil {
		// 回滚到上一个完整行
		s.f.Truncate(s.size)
		s.f.Seek(s.size, io.SeekStart)
		return fmt.Errorf("append record: %w", err)
	}
	if end, err := s.f.Seek(0, io.SeekCurrent); err == nil {
		s.size = end
	}
	return nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	var errs cerrors.M
	s.w.Flush()
	errs.Append(s.w.Error())
	errs.Append(s.f.Sync())
	errs.Append(s.f.Close())
	return errs.Err()
}

// Scan 依次读出文件中的每条记录，忽略末尾不完整的行
func Scan(path string, fn func(storage.RawRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scan(f, fn)
}

// ErrBadHeader 文件首行不是 url,payload
var ErrBadHeader = errors.New("csvstorage: unexpected header")

func scan(r io.Reader, fn func(storage.RawRecord) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	first := true
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		complete := strings.HasSuffix(line, "\n")
		if complete {
			fields, perr := parseLine(line)
			if perr != nil {
				return perr
			}
			if first {
				first = false
				if len(fields) != 2 || fields[0] != header[0] || fields[1] != header[1] {
					return ErrBadHeader
				}
			} else if len(fields) > 0 && fields[0] != "" {
				rec := storage.RawRecord{URL: fields[0]}
				if len(fields) > 1 && fields[1] != "" {
					rec.Payload = json.RawMessage(fields[1])
				}
				if ferr := fn(rec); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}

func parseLine(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	fields, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("parse record row: %w", err)
	}
	return fields, nil
}
