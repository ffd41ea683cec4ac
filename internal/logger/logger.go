package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level はログレベルを表す
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel は文字列からログレベルを解釈する（大文字小文字は区別しない）
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// Logger はスレッドセーフなロガー
// 1エントリは1回の Write で出力される。
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
	now      func() time.Time
	buf      []byte
}

// Default はデフォルトのロガー（標準エラー出力、INFO以上）
var Default = New(os.Stderr, LevelInfo)

const timeLayout = "2006-01-02 15:04:05.000"

// New は新しいロガーを作成する
func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{
		out:      out,
		minLevel: minLevel,
		now:      time.Now,
	}
}

// SetLevel はログレベルを設定する
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// SetOutput は出力先を差し替える
func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
}

// Enabled は指定レベルが出力対象かを返す
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.minLevel
}

func (l *Logger) log(level Level, component string, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	b := l.buf[:0]
	b = append(b, '[')
	b = l.now().AppendFormat(b, timeLayout)
	b = append(b, "] ["...)
	b = append(b, level.String()...)
	b = append(b, ']')
	if component != "" {
		b = append(b, " ["...)
		b = append(b, component...)
		b = append(b, ']')
	}
	b = append(b, ' ')
	b = fmt.Appendf(b, format, args...)
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	l.buf = b

	_, _ = l.out.Write(b)
}

func (l *Logger) Debug(component string, format string, args ...any) {
	l.log(LevelDebug, component, format, args...)
}

func (l *Logger) Info(component string, format string, args ...any) {
	l.log(LevelInfo, component, format, args...)
}

func (l *Logger) Warn(component string, format string, args ...any) {
	l.log(LevelWarn, component, format, args...)
}

func (l *Logger) Error(component string, format string, args ...any) {
	l.log(LevelError, component, format, args...)
}

// Component はコンポーネント名を固定したロガー
// 名前は "pool/search" のようにスラッシュ区切りで階層化できる。
type Component struct {
	l    *Logger
	name string
}

// For はコンポーネント名付きのロガーを返す
func (l *Logger) For(name string) Component {
	return Component{l: l, name: name}
}

// Named は name を子として連結したコンポーネントを返す
// 空文字や同名の子は連結しない。
func (c Component) Named(name string) Component {
	switch {
	case name == "" || name == c.name:
		return c
	case c.name == "":
		return Component{l: c.l, name: name}
	default:
		return Component{l: c.l, name: c.name + "/" + name}
	}
}

// Name はコンポーネント名を返す
func (c Component) Name() string { return c.name }

// Enabled は指定レベルが出力対象かを返す
func (c Component) Enabled(level Level) bool { return c.l.Enabled(level) }

func (c Component) Debug(format string, args ...any) { c.l.Debug(c.name, format, args...) }
func (c Component) Info(format string, args ...any)  { c.l.Info(c.name, format, args...) }
func (c Component) Warn(format string, args ...any)  { c.l.Warn(c.name, format, args...) }
func (c Component) Error(format string, args ...any) { c.l.Error(c.name, format, args...) }

// Error はデフォルトロガーにエラーログを出力する
func Error(component string, format string, args ...any) {
	Default.Error(component, format, args...)
}

// For はデフォルトロガーからコンポーネントロガーを返す
func For(name string) Component {
	return Default.For(name)
}
