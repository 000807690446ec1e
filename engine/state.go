package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nrich-sunny/listingcrawler/checkpoint"
	"github.com/Nrich-sunny/listingcrawler/collect"
)

type Phase string

const (
	PhaseListing Phase = "listing"
	PhaseDetail  Phase = "detail"
)

// Status 一次运行的状态：Idle → Running → {Completed, Interrupted, Failed}
type Status int

const (
	Idle Status = iota
	Running
	Completed
	Interrupted
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Interrupted:
		return "Interrupted"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// CrawlState 一次运行的进度与计数，由循环持有并更新
type CrawlState struct {
	Phase      Phase
	RunID      string
	Status     Status
	Checkpoint checkpoint.Checkpoint // 已持久化的进度
	Total      int                   // 本次需要处理的单元数

	Processed    int // 尝试过的单元
	Succeeded    int
	NullPayloads int // 已保存但提取失败的记录
	Skipped      int // 抓取或解析失败，留给下次
	Failed       int // 保存失败

	Err error
}

func (s *CrawlState) record(o Outcome) {
	s.Processed++
	switch o.Kind {
	case Success:
		if o.Null {
			s.NullPayloads++
		} else {
			s.Succeeded++
		}
	case Skip:
		if o.Class == ClassPersistenceFailure {
			s.Failed++
		} else {
			s.Skipped++
		}
	}
}

// OutcomeKind 单元处理结果，由循环决定后续策略
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Skip
	Fatal
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "Success"
	case Skip:
		return "Skip"
	case Fatal:
		return "Fatal"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Class 失败的分类
type Class int

const (
	ClassNone Class = iota
	ClassRateLimited
	ClassTransientNetwork
	ClassPermanentHTTPStatus
	ClassParseFailure
	ClassPersistenceFailure
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "None"
	case ClassRateLimited:
		return "RateLimited"
	case ClassTransientNetwork:
		return "TransientNetwork"
	case ClassPermanentHTTPStatus:
		return "PermanentHTTPStatus"
	case ClassParseFailure:
		return "ParseFailure"
	case ClassPersistenceFailure:
		return "PersistenceFailure"
	case ClassFatal:
		return "Fatal"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

type Outcome struct {
	Kind  OutcomeKind
	Class Class
	Err   error
	Count int  // 列表页提取到的 URL 数
	Null  bool // 详情页 payload 为空
}

func success(count int) Outcome {
	return Outcome{Kind: Success, Count: count}
}

func skip(class Class, err error) Outcome {
	return Outcome{Kind: Skip, Class: class, Err: err}
}

func fatal(err error) Outcome {
	return Outcome{Kind: Fatal, Class: ClassFatal, Err: err}
}

// ErrParse 页面可以取到，但内容无法解析
var ErrParse = errors.New("parse failure")

// ErrEmptyPage 列表页没有任何详情链接
var ErrEmptyPage = fmt.Errorf("%w: no listing urls on page", ErrParse)

// PersistenceError 写入账本、记录或进度失败
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func classify(err error) Class {
	var (
		fe *collect.FetchError
		pe *PersistenceError
	)
	switch {
	case err == nil:
		return ClassNone
	case errors.As(err, &fe):
		switch fe.Kind {
		case collect.KindRateLimited:
			return ClassRateLimited
		case collect.KindNetwork, collect.KindTimeout:
			return ClassTransientNetwork
		case collect.KindHTTPStatus:
			return ClassPermanentHTTPStatus
		}
	case errors.Is(err, ErrParse):
		return ClassParseFailure
	case errors.As(err, &pe):
		return ClassPersistenceFailure
	}
	return ClassFatal
}

func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
