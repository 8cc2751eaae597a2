package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout формат времени в записях лога
const TimeLayout = "02.01.2006 - 15:04:05.000000000Z07:00"

// Глобальный экземпляр логгера
var (
	globalLogger = zap.NewNop()
	mu           sync.RWMutex
)

// Config настройки логирования
type Config struct {
	Level    string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Console  bool   `yaml:"console" default:"false"`
	File     string `yaml:"file" default:"tradegate.log"`
	JSONFile string `yaml:"json_file" default:"tradegate.json.log"`
	// Truncate очищает JSON-лог при запуске
	Truncate bool `yaml:"truncate" default:"true"`
}

// Init инициализирует глобальный логгер. До вызова Init все записи отбрасываются.
func Init(cfg Config) error {
	l, err := newLogger(cfg)
	if err != nil {
		return err
	}

	mu.Lock()
	globalLogger = l
	mu.Unlock()
	return nil
}

// GetLogger возвращает глобальный экземпляр логгера
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Вспомогательные функции для удобства использования
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// newLogger собирает tee из консоли, читаемого файла и JSON-файла
func newLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("неизвестный уровень логирования %q: %w", cfg.Level, err)
	}

	// Конфигурация энкодера
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	// Цвета только для человекочитаемых выводов
	readableConfig := encoderConfig
	readableConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	jsonConfig := encoderConfig
	jsonConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var cores []zapcore.Core

	if cfg.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(readableConfig), zapcore.Lock(os.Stderr), level))
	}

	if cfg.File != "" {
		readableFile, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия файла логов: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(readableConfig), zapcore.AddSync(readableFile), level))
	}

	if cfg.JSONFile != "" {
		flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
		// Очистка логов при перезапуске
		if cfg.Truncate {
			flags = os.O_TRUNC | os.O_CREATE | os.O_WRONLY
		}
		jsonFile, err := os.OpenFile(cfg.JSONFile, flags, 0644)
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия JSON-файла логов: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), zapcore.AddSync(jsonFile), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)), nil
}
