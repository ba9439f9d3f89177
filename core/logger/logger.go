package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

const header = `{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}"}`

var (
	instance *log.Logger
	once     sync.Once
)

func get() *log.Logger {
	once.Do(func() {
		instance = log.New("smart-planner")
		instance.SetOutput(os.Stdout)
		instance.SetHeader(header)
		instance.SetLevel(log.INFO)
	})
	return instance
}

// SetLevel accepts debug, info, warn, error or off. Unknown values keep info.
func SetLevel(level string) {
	l := get()
	switch strings.ToLower(level) {
	case "debug":
		l.SetLevel(log.DEBUG)
	case "warn", "warning":
		l.SetLevel(log.WARN)
	case "error":
		l.SetLevel(log.ERROR)
	case "off":
		l.SetLevel(log.OFF)
	default:
		l.SetLevel(log.INFO)
	}
}

func SetOutput(w io.Writer) {
	get().SetOutput(w)
}

// Logger exposes the underlying gommon logger so echo can share it.
func Logger() *log.Logger {
	return get()
}

func Debug(msg string, kv ...any) {
	get().Debugj(fields(msg, kv))
}

func Info(msg string, kv ...any) {
	get().Infoj(fields(msg, kv))
}

func Warn(msg string, kv ...any) {
	get().Warnj(fields(msg, kv))
}

func Error(msg string, kv ...any) {
	get().Errorj(fields(msg, kv))
}

// fields turns alternating key/value pairs into a JSON object. A trailing value
// without a key is stored under "error" when it is an error, "detail" otherwise.
func fields(msg string, kv []any) log.JSON {
	j := log.JSON{"message": msg}
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			if _, ok := kv[i].(error); ok {
				j["error"] = value(kv[i])
			} else {
				j["detail"] = value(kv[i])
			}
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		j[key] = value(kv[i+1])
	}
	return j
}

func value(v any) any {
	switch t := v.(type) {
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return v
	}
}
