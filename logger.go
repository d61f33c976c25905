package sheetstore

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SetupLogger 设置日志，返回命名 logger 与 Sync 回调
func SetupLogger(name string, level zapcore.Level, isDev bool) (*zap.Logger, func(), error) {
	var cfg zap.Config
	if isDev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, func() {}, err
	}

	logger = logger.Named(name)
	return logger, func() { _ = logger.Sync() }, nil
}

// ParseLevel 将配置中的日志级别字符串转为 zapcore.Level，无法识别时回退到 info
func ParseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
