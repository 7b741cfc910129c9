package logflags

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var enabled = false
var ptrace = false
var rpc = false
var enum = false

var logOut io.WriteCloser

func makeLogger(level logrus.Level, fields Fields) Logger {
	if lf := loggerFactory; lf != nil {
		return lf(level, fields, logOut)
	}
	logger := logrus.New().WithFields(logrus.Fields(fields))
	logger.Logger.Formatter = textFormatter()
	if logOut != nil {
		logger.Logger.Out = logOut
	}
	logger.Logger.Level = level
	return &logrusLogger{logger}
}

func makeFlaggableLogger(flag bool, fields Fields) Logger {
	if !flag {
		return makeLogger(logrus.ErrorLevel, fields)
	}
	return makeLogger(logrus.DebugLevel, fields)
}

func textFormatter() *logrus.TextFormatter {
	colors := false
	if f, ok := logOut.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd())
	} else if logOut == nil {
		colors = isatty.IsTerminal(os.Stderr.Fd())
	}
	return &logrus.TextFormatter{
		DisableColors:   !colors,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	}
}

// Any returns true if any logging is enabled.
func Any() bool {
	return enabled
}

// Ptrace returns true if ptrace requests should be logged.
func Ptrace() bool {
	return ptrace
}

// PtraceLogger returns a logger for the native ptrace backend.
func PtraceLogger() Logger {
	return makeFlaggableLogger(ptrace, Fields{"layer": "ptrace"})
}

// RPC returns true if RPC messages should be logged.
func RPC() bool {
	return rpc
}

// RPCLogger returns a logger for RPC messages.
func RPCLogger() Logger {
	return makeFlaggableLogger(rpc, Fields{"layer": "rpc"})
}

// Enum returns true if process enumeration should be logged.
func Enum() bool {
	return enum
}

// EnumLogger returns a logger for the process enumerator.
func EnumLogger() Logger {
	return makeFlaggableLogger(enum, Fields{"layer": "enum"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets logging flags based on the contents of logstr.
// If logDest is not empty logs will be redirected to the file descriptor or
// file path specified by logDest.
func Setup(logFlag bool, logstr, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "procctl-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return fmt.Errorf("could not create log file: %w", err)
			}
			logOut = fh
		}
	}
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logOut != nil {
		log.SetOutput(logOut)
	}
	if logstr == "" {
		logstr = "ptrace"
	}
	enabled = true
	v := strings.Split(logstr, ",")
	for _, logcmd := range v {
		switch logcmd {
		case "ptrace":
			ptrace = true
		case "rpc":
			rpc = true
		case "enum":
			enum = true
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown log output value %q, run 'procctl help log' for usage.\n", logcmd)
		}
	}
	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != nil {
		logOut.Close()
	}
}
