// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package log provides leveled logging for the driver process.
//
// Time/date are omitted by default because systemd timestamps journal
// entries for us; pass SetLogDateTime(true) when running outside systemd.
// Uses the sd-daemon numeric priority prefixes:
// https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelNote
	levelWarn
	levelErr
	levelCrit
)

var levelPrefix = map[level]string{
	levelDebug: "<7>[DEBUG]    ",
	levelInfo:  "<6>[INFO]     ",
	levelNote:  "<5>[NOTICE]   ",
	levelWarn:  "<4>[WARNING]  ",
	levelErr:   "<3>[ERROR]    ",
	levelCrit:  "<2>[CRITICAL] ",
}

var levelFlags = map[level]int{
	levelDebug: 0,
	levelInfo:  0,
	levelNote:  log.Lshortfile,
	levelWarn:  log.Lshortfile,
	levelErr:   log.Llongfile,
	levelCrit:  log.Llongfile,
}

var (
	writers  = map[level]io.Writer{}
	loggers  = map[level]*log.Logger{}
	minLevel = levelDebug
	withDate bool
)

func init() {
	for l := range levelPrefix {
		writers[l] = os.Stderr
	}
	rebuildLoggers()
}

func rebuildLoggers() {
	for l, prefix := range levelPrefix {
		flags := levelFlags[l]
		if withDate {
			flags |= log.LstdFlags
		}
		loggers[l] = log.New(writers[l], prefix, flags)
	}
}

// SetLogLevel discards every level below lvl. Valid values (ascending):
// debug, info, notice, warn, err/fatal, crit.
func SetLogLevel(lvl string) {
	order := []struct {
		name string
		l    level
	}{
		{"debug", levelDebug}, {"info", levelInfo}, {"notice", levelNote},
		{"warn", levelWarn}, {"err", levelErr}, {"crit", levelCrit},
	}

	idx := -1
	for i, o := range order {
		if o.name == lvl || (lvl == "fatal" && o.name == "err") {
			idx = i
			break
		}
	}
	if idx < 0 {
		fmt.Printf("log: invalid loglevel %q, defaulting to debug\n", lvl)
		idx = 0
	}

	minLevel = order[idx].l
	for i, o := range order {
		if i < idx {
			writers[o.l] = io.Discard
		}
	}
	rebuildLoggers()
}

func SetLogDateTime(enabled bool) {
	withDate = enabled
	rebuildLoggers()
}

func output(l level, s string) {
	if l < minLevel {
		return
	}
	loggers[l].Output(3, s)
}

func Debug(v ...interface{})                 { output(levelDebug, fmt.Sprint(v...)) }
func Info(v ...interface{})                  { output(levelInfo, fmt.Sprint(v...)) }
func Note(v ...interface{})                  { output(levelNote, fmt.Sprint(v...)) }
func Warn(v ...interface{})                  { output(levelWarn, fmt.Sprint(v...)) }
func Error(v ...interface{})                 { output(levelErr, fmt.Sprint(v...)) }
func Crit(v ...interface{})                  { output(levelCrit, fmt.Sprint(v...)) }
func Debugf(f string, v ...interface{})      { output(levelDebug, fmt.Sprintf(f, v...)) }
func Infof(f string, v ...interface{})       { output(levelInfo, fmt.Sprintf(f, v...)) }
func Notef(f string, v ...interface{})       { output(levelNote, fmt.Sprintf(f, v...)) }
func Warnf(f string, v ...interface{})       { output(levelWarn, fmt.Sprintf(f, v...)) }
func Errorf(f string, v ...interface{})      { output(levelErr, fmt.Sprintf(f, v...)) }
func Critf(f string, v ...interface{})       { output(levelCrit, fmt.Sprintf(f, v...)) }

// Fatal logs at error level then terminates the process.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Fatalf(f string, v ...interface{}) {
	Errorf(f, v...)
	os.Exit(1)
}

// Abort behaves like Fatal but is named for the driver's init-time
// aborts (bad config, unreachable required dependency at startup).
func Abort(v ...interface{})            { Fatal(v...) }
func Abortf(f string, v ...interface{}) { Fatalf(f, v...) }
