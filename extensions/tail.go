package extensions

import (
	"bytes"
	"io"
)

// CompleteLength 返回最后一个换行符之后的偏移，即文件中完整行所占的字节数。
// 进程在写一行的中途崩溃时，超出这个长度的部分就是残缺的行
func CompleteLength(r io.ReaderAt, size int64) (int64, error) {
	const chunk = 64 * 1024
	buf := make([]byte, chunk)
	end := size
	for end > 0 {
		start := end - chunk
		if start < 0 {
			start = 0
		}
		n, err := r.ReadAt(buf[:end-start], start)
		if err != nil && err != io.EOF {
			return 0, err
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}
