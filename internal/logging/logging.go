package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
)

// Log levels, ordered from quietest to noisiest.
const (
	None = iota
	Error
	Warning
	Info
	Debug
)

var currentLevel atomic.Int32
var logger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)

func init() {
	currentLevel.Store(Info)
}

// SetLevel atomically sets the global logging level, clamped to [None, Debug].
func SetLevel(level int) {
	if level < None {
		level = None
	} else if level > Debug {
		level = Debug
	}
	currentLevel.Store(int32(level))
}

// GetLevel returns the current global logging level.
func GetLevel() int {
	return int(currentLevel.Load())
}

// ParseLevel converts a level string (case-insensitive) to its integer value.
// Returns Info and an error for unrecognized strings.
func ParseLevel(levelStr string) (int, error) {
	switch strings.ToLower(levelStr) {
	case "none":
		return None, nil
	case "error":
		return Error, nil
	case "warn", "warning":
		return Warning, nil
	case "info":
		return Info, nil
	case "debug":
		return Debug, nil
	default:
		return Info, fmt.Errorf("invalid log level string: '%s'", levelStr)
	}
}

// SetupLogging configures the global level from a string, falling back to Info
// (with a warning) when the string is invalid. Returns the level that was set.
func SetupLogging(levelStr string) int {
	level, err := ParseLevel(levelStr)
	if err != nil {
		logf(Warning, "Invalid log level '%s' provided, defaulting to 'info'. Error: %v", levelStr, err)
	}
	SetLevel(level)
	return level
}

// SetOutput changes the output destination of the global logger.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// logf formats and writes a message if the level is enabled. Debug messages
// are prefixed with caller file:line:function.
func logf(level int, format string, v ...interface{}) {
	if int32(level) > currentLevel.Load() {
		return
	}

	var levelPrefix string
	switch level {
	case Error:
		levelPrefix = "[ERROR] "
	case Warning:
		levelPrefix = "[WARN] "
	case Info:
		levelPrefix = "[INFO] "
	case Debug:
		levelPrefix = "[DEBUG] "
	default:
		levelPrefix = "[UNKN] "
	}

	fullPrefix := levelPrefix
	if level == Debug {
		// runtime.Caller(2) resolves the caller of the public Logf.
		pc, file, line, ok := runtime.Caller(2)
		if ok {
			funcName := "???"
			if f := runtime.FuncForPC(pc); f != nil {
				funcName = filepath.Base(f.Name())
			}
			fullPrefix = fmt.Sprintf("%s%s:%d:%s ", levelPrefix, filepath.Base(file), line, funcName)
		} else {
			fullPrefix = fmt.Sprintf("%s???:0:??? ", levelPrefix)
		}
	}

	message := fmt.Sprintf(format, v...)
	logger.Println(fullPrefix + message)
}

// Logf logs a formatted message if the specified level is enabled.
func Logf(level int, format string, v ...interface{}) {
	logf(level, format, v...)
}
