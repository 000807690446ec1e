package log

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 爬虫进程的日志默认值

// DefaultEncoderConfig 时间统一用 UTC，和检查点中的 updatedAt 对得上；
// 退避等待等时长按 "5s" 这种可读形式输出；子 logger 的名字落在 component 字段
func DefaultEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.NameKey = "component"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	}
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

func DefaultEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(DefaultEncoderConfig())
}

// DefaultOption 单个页面的失败只记 Warn/Error，不带堆栈；
// 只有 runUnit 捕获到的 panic 这类 DPanic 以上的事件才输出堆栈
func DefaultOption() []zap.Option {
	var stackTraceLevel zap.LevelEnablerFunc = func(level zapcore.Level) bool {
		return level >= zapcore.DPanicLevel
	}
	return []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(stackTraceLevel),
	}
}

// DefaultLumberjackLogger 详情抓取会连续跑上几个小时、每条 URL 都有日志，
// 按 200mb 切分并压缩，保留最近 10 个备份，避免占满数据盘
func DefaultLumberjackLogger() *lumberjack.Logger {
	return &lumberjack.Logger{
		MaxSize:    200,
		MaxBackups: 10,
		LocalTime:  false,
		Compress:   true,
	}
}

// ParseLevel 解析配置中的日志级别，空字符串视为 INFO
func ParseLevel(text string) (zapcore.Level, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(text)
}
