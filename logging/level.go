package logging

import (
	"encoding/json"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of a log entry. In JSON it is one of "debug", "info", "warn" or "error".
type Level int

// Levels share their values with zapcore.
const (
	DEBUG Level = iota - 1
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "debug",
	INFO:  "info",
	WARN:  "warn",
	ERROR: "error",
}

func (level Level) String() string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return "unknown"
}

// AsZap returns the matching zapcore level. Unknown levels map to info.
func (level Level) AsZap() zapcore.Level {
	if _, ok := levelNames[level]; !ok {
		return zapcore.InfoLevel
	}
	return zapcore.Level(level)
}

// LevelFromString parses a level name, ignoring case. "warning" is accepted for WARN.
func LevelFromString(inp string) (Level, error) {
	if strings.EqualFold(inp, "warning") {
		return WARN, nil
	}
	for level, name := range levelNames {
		if strings.EqualFold(inp, name) {
			return level, nil
		}
	}
	return DEBUG, errors.Errorf("unknown log level: %q", inp)
}

// MarshalJSON writes the level name.
func (level Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(level.String())
}

// UnmarshalJSON reads a level name.
func (level *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := LevelFromString(name)
	if err != nil {
		return err
	}
	*level = parsed
	return nil
}

// AtomicLevel is a Level that can be read and changed concurrently. Copies share one value.
type AtomicLevel struct {
	v *atomic.Int32
}

// NewAtomicLevelAt returns an AtomicLevel holding level.
func NewAtomicLevelAt(level Level) AtomicLevel {
	al := AtomicLevel{v: new(atomic.Int32)}
	al.Set(level)
	return al
}

// Set changes the level.
func (al AtomicLevel) Set(level Level) {
	al.v.Store(int32(level))
}

// Get returns the level.
func (al AtomicLevel) Get() Level {
	return Level(al.v.Load())
}
