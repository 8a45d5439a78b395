package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New debug 環境輸出易讀格式, 其他環境輸出 JSON
// level 無法解析時使用 info
func New(level string, debug bool) *zerolog.Logger {
	return newWithWriter(os.Stdout, level, debug)
}

func newWithWriter(w io.Writer, level string, debug bool) *zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if debug {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "storefront").Logger()
	return &logger
}
