package limiter

import (
	"context"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter 对限速器的抽象，golang.org/x/time/rate实现的 Limiter 自动就实现了该接口
type RateLimiter interface {
	Wait(ctx context.Context) error
	Limit() rate.Limit
}

// Config 一层限速：EventDur 秒内最多 EventCount 个请求
type Config struct {
	EventCount int `json:"event_count"`
	EventDur   int `json:"event_dur"` // 秒
	Bucket     int `json:"bucket"`    // 桶大小
}

// MultiLimiter 多层限速器
type MultiLimiter struct {
	limiters []RateLimiter
}

func NewMultiLimiter(limiters ...RateLimiter) *MultiLimiter {
	byLimit := func(i, j int) bool {
		return limiters[i].Limit() < limiters[j].Limit()
	}
	// 将速率由小到大排序
	sort.Slice(limiters, byLimit)
	return &MultiLimiter{
		limiters: limiters,
	}
}

func (l *MultiLimiter) Wait(ctx context.Context) error {
	for _, l := range l.limiters {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (l *MultiLimiter) Limit() rate.Limit {
	if len(l.limiters) == 0 {
		return rate.Inf
	}
	// 返回最小速率的限速器的速率
	return l.limiters[0].Limit()
}

// Per 用来生成速率：duration 内允许 eventCount 个事件
func Per(eventCount int, duration time.Duration) rate.Limit {
	return rate.Every(duration / time.Duration(eventCount))
}

// NewDelayLimiter 两次请求之间至少间隔 delay，桶大小为 1
func NewDelayLimiter(delay time.Duration) RateLimiter {
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Build 根据配置组装限速器。delay 与 cfgs 都为空时返回 nil，表示不限速
func Build(delay time.Duration, cfgs []Config) RateLimiter {
	var limits []RateLimiter
	if delay > 0 {
		limits = append(limits, NewDelayLimiter(delay))
	}
	for _, c := range cfgs {
		if c.EventCount <= 0 || c.EventDur <= 0 {
			continue
		}
		bucket := c.Bucket
		if bucket <= 0 {
			bucket = 1
		}
		limits = append(limits, rate.NewLimiter(Per(c.EventCount, time.Duration(c.EventDur)*time.Second), bucket))
	}
	switch len(limits) {
	case 0:
		return nil
	case 1:
		return limits[0]
	}
	return NewMultiLimiter(limits...)
}
