package logsvc

import (
	"fmt"
	"sync"

	"github.com/trezcool/datagrid/core"
)

type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// LoggerMock records log entries instead of printing them.
type LoggerMock struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*LoggerMock)(nil)

func NewLoggerMock() *LoggerMock {
	return &LoggerMock{}
}

func (l *LoggerMock) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
}

func (l *LoggerMock) Entries(level ...string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var res []Entry
	for _, e := range l.entries {
		if len(level) == 0 || e.Level == level[0] {
			res = append(res, e)
		}
	}
	return res
}

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *LoggerMock) Info(msg string, args ...interface{}) { l.log("info", msg, args) }
func (l *LoggerMock) Warn(msg string, args ...interface{}) { l.log("warn", msg, args) }
func (l *LoggerMock) Error(msg string, args ...interface{}) { l.log("error", msg, args) }

func (l *LoggerMock) Fatal(msg string, args ...interface{}) {
	l.log("fatal", msg, args)
	panic(fmt.Sprintf("fatal: %s", msg))
}
