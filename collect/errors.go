package collect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind 抓取失败的类型
type Kind int

const (
	KindRateLimited Kind = iota + 1 // 429，重试次数耗尽
	KindHTTPStatus                  // 其它非 2xx 状态码，不重试
	KindNetwork                     // 连接被重置、DNS 失败等
	KindTimeout                     // 请求超时
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "RateLimited"
	case KindHTTPStatus:
		return "HTTPStatus"
	case KindNetwork:
		return "Network"
	case KindTimeout:
		return "Timeout"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// FetchError 单个 URL 抓取失败。调用方根据 Kind 决定跳过该单元还是终止整个爬取
type FetchError struct {
	Kind       Kind
	StatusCode int
	URL        string
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s %d after %d attempt(s)", e.URL, e.Kind, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %s after %d attempt(s): %v", e.URL, e.Kind, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable 429、网络错误和超时可以重试，其它状态码不行
func (e *FetchError) Retryable() bool {
	return e.Kind != KindHTTPStatus
}

// IsKind 判断 err 是否为指定类型的抓取错误
func IsKind(err error, kind Kind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

func statusError(url string, code int) *FetchError {
	kind := KindHTTPStatus
	if code == http.StatusTooManyRequests {
		kind = KindRateLimited
	}
	return &FetchError{Kind: kind, StatusCode: code, URL: url}
}

func transportError(url string, err error) *FetchError {
	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}
	return &FetchError{Kind: kind, URL: url, Err: err}
}
