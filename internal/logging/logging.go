// Package logging hands out component loggers that share one output and
// one level.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	level   log.Level = log.WarnLevel
	out     io.Writer = os.Stderr
	loggers []*log.Logger
)

// New returns a logger whose messages carry prefix. Loggers created here
// follow later SetLevel and SetOutput calls.
func New(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	l := log.NewWithOptions(out, log.Options{
		Prefix: prefix,
		Level:  level,
	})
	loggers = append(loggers, l)
	return l
}

// SetLevel changes the level of every logger. Unknown names are rejected.
func SetLevel(name string) error {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()

	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
	return nil
}

// SetOutput redirects every logger to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	out = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}
