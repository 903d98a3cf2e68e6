// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

/*
Package dlog prints messages to standard error and an optional log file.
It is intended for progress and error logging and should not be used for
profiling (it is slow).

Log can be enabled/disabled for two independent streams:
  console  => standard error stream
  log file => log file, truncated on every run, optionally daily-stamped

Log messages are prefixed with date-time by default, ie: 2012-08-17
16:04:59.0148 ..., unless LogOptions.IsNoMsgTime is set.
*/
package dlog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/tablecmp/tablecmp/config"
	"github.com/tablecmp/tablecmp/helper"
)

var (
	theLock       sync.Mutex                          // mutex guarding every log operation
	isFileEnabled bool                                 // true if log-to-file is enabled
	isFileCreated bool                                 // true if the log file has been created
	logPath       string                               // current log file path, daily-stamped if requested
	lastYear      int                                  // year of the current daily stamp, if daily
	lastMonth     time.Month                           // month of the current daily stamp, if daily
	lastDay       int                                  // day of the current daily stamp, if daily
	logOpts       = config.LogOptions{IsConsole: true} // active log settings, default: console only
)

// New applies opts as the active log settings. Call it once at startup
// after config.New().
func New(opts *config.LogOptions) {
	theLock.Lock()
	defer theLock.Unlock()

	if opts != nil {
		logOpts = *opts
	}
	isFileEnabled = logOpts.IsFile // file may be enabled but not yet created
	isFileCreated = false
}

// Log writes a message to console and/or log file, per the active settings.
func Log(msg ...interface{}) {
	theLock.Lock()
	defer theLock.Unlock()

	var m string
	now := time.Now()
	if logOpts.IsNoMsgTime {
		m = fmt.Sprint(msg...)
	} else {
		m = helper.MakeDateTime(now) + " " + fmt.Sprint(msg...)
	}
	if logOpts.IsConsole {
		fmt.Fprintln(os.Stderr, m)
	}

	if isFileEnabled &&
		(!isFileCreated ||
			logOpts.IsDaily && (now.Year() != lastYear || now.Month() != lastMonth || now.Day() != lastDay)) {
		isFileCreated = createLogFile(now)
		isFileEnabled = isFileCreated
	}
	if isFileEnabled {
		isFileEnabled = writeToLogFile(m)
	}
}

// LogSql writes a SQL statement to the log file, if IsLogSql is set. It
// never writes to console: SQL statements can be large and are meant for
// post-mortem diagnosis, not live progress output.
func LogSql(sql string) {
	theLock.Lock()
	defer theLock.Unlock()

	if !logOpts.IsLogSql {
		return
	}

	now := time.Now()
	if isFileEnabled &&
		(!isFileCreated ||
			logOpts.IsDaily && (now.Year() != lastYear || now.Month() != lastMonth || now.Day() != lastDay)) {
		isFileCreated = createLogFile(now)
		isFileEnabled = isFileCreated
	}
	if isFileEnabled {
		isFileEnabled = writeToLogFile(helper.MakeDateTime(now) + " " + sql)
	}
}

// createLogFile creates (or truncates) the log file, applying a daily
// stamp to the name if requested. Returns false on error, to disable file
// logging for the rest of the run rather than fail it.
func createLogFile(nowTime time.Time) bool {

	logPath = logOpts.LogPath

	if logOpts.IsDaily {
		dir, fName := filepath.Split(logPath)
		ext := filepath.Ext(fName)
		if ext != "" {
			fName = fName[:len(fName)-len(ext)]
		}
		lastYear = nowTime.Year()
		lastMonth = nowTime.Month()
		lastDay = nowTime.Day()
		logPath = filepath.Join(dir, fName+"_"+fmt.Sprintf("%04d%02d%02d", lastYear, lastMonth, lastDay)+ext)
	}

	f, err := os.Create(logPath)
	if err != nil {
		return false
	}
	defer f.Close()
	return true
}

// writeToLogFile appends msg and a newline to the log file. Returns false
// on error, to disable file logging for the rest of the run.
func writeToLogFile(msg string) bool {

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return false
	}
	defer f.Close()

	_, err = f.WriteString(msg)
	if err == nil {
		if runtime.GOOS == "windows" {
			_, err = f.WriteString("\r\n")
		} else {
			_, err = f.WriteString("\n")
		}
	}
	return err == nil
}
