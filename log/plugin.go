package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Plugin 日志输出插件，本质上是一个 zapcore.Core
type Plugin = zapcore.Core

func NewLogger(plugin Plugin, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

func NewStdoutPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stdout)), enabler)
}

func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// NewFilePlugin lumberjack 持有文件但没有暴露 sync 方法，无法利用 zap 的 sync，
// 所以额外返回一个 closer，进程退出前需要 close 以保证日志全部落盘
func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	var writer = DefaultLumberjackLogger()
	writer.Filename = filePath
	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

// NewTeePlugin 同时输出到多个插件，例如 stdout 与文件
func NewTeePlugin(plugins ...Plugin) Plugin {
	return zapcore.NewTee(plugins...)
}
