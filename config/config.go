// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

/*
Package config merges run options from command-line arguments and an
ini-file. Command-line arguments take precedence over ini-file options,
which in turn take precedence over flag defaults.
*/
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
)

// Standard config keys, read from ini-file section.key or from a matching
// command-line flag.
const (
	OptionsFile      = "Tablecmp.OptionsFile" // ini-file path
	OptionsFileShort = "ini"                  // ini-file path (short form)

	LeftConnection  = "Tablecmp.LeftConnection"  // left side db connection string
	LeftDriver      = "Tablecmp.LeftDriver"      // left side db driver name
	RightConnection = "Tablecmp.RightConnection" // right side db connection string
	RightDriver     = "Tablecmp.RightDriver"     // right side db driver name

	Table     = "Tablecmp.Table"     // table name, same on both sides
	KeyCols   = "Tablecmp.Keys"      // comma-separated primary key column list
	ValueCols = "Tablecmp.Columns"   // comma-separated compared column list
	Where     = "Tablecmp.Where"     // row filter applied to both sides
	KeyLen    = "Tablecmp.KeyLen"    // max length of the concatenated key string

	Factor    = "Tablecmp.Factor"    // cascade fan-out factor
	FactorShort = "f"
	MaxLevels = "Tablecmp.MaxLevels" // cap on cascade depth, 0 = unlimited
	MaxReport = "Tablecmp.MaxReport" // effort cap on rows investigated per level
	Prefix    = "Tablecmp.Prefix"    // working table name prefix
	Temporary = "Tablecmp.Temporary" // create cascade tables as TEMPORARY
	Cleanup   = "Tablecmp.Cleanup"   // drop cascade tables when done
	Parallel  = "Tablecmp.Parallel"  // build/walk both sides concurrently
	Verbose   = "Tablecmp.Verbose"   // diagnostic verbosity, 0..3
	VerboseShort = "V"               // diagnostic verbosity (short of Tablecmp.Verbose)
)

/* Log config keys.
Log can be enabled/disabled for two independent streams:
    console  => standard error stream
    log file => log file, truncated on every run, optionally daily-stamped
*/
const (
	LogToConsole      = "OpenM.LogToConsole" // if true then log to standard error
	LogToConsoleShort = "v"                  // if true then log to standard error (short form)
	LogToFile         = "OpenM.LogToFile"    // if true then log to file
	LogFilePath       = "OpenM.LogFilePath"  // log file path, default = current/dir/exeName.log
	LogUseDaily       = "OpenM.LogUseDailyStamp"
	LogNoMsgTime      = "OpenM.LogNoMsgTime" // if true then do not prefix log messages with date-time
	LogSql            = "OpenM.LogSql"       // if true then log sql statements
)

// RunOptions is a (key,value) map of command-line arguments and ini-file
// content. Ini-file keys are combined as section.key.
type RunOptions struct {
	KeyValue        map[string]string // (key=>value) from command line arguments and ini-file
	DefaultKeyValue map[string]string // default (key=>value), non-empty default for command line argument
	iniPath         string            // path to ini-file
}

// LogOptions configures console and log file output.
type LogOptions struct {
	LogPath     string // path to log file
	IsConsole   bool   // if true then log to standard error, default: true
	IsFile      bool   // if true then log to file
	IsDaily     bool   // if true then the log file name carries a daily date stamp
	IsNoMsgTime bool   // if true then do not prefix log messages with date-time
	IsLogSql    bool   // if true then log sql statements
}

// fullShort pairs a full option name with its short command-line form.
type fullShort struct {
	full  string
	short string
}

var optFs = []fullShort{
	{Factor, FactorShort},
	{Verbose, VerboseShort},
}

// New parses command-line arguments and an optional ini-file into a
// RunOptions and LogOptions pair. Command-line arguments win over ini-file
// content, which wins over flag defaults.
func New() (*RunOptions, *LogOptions, error) {

	runOpts := &RunOptions{
		KeyValue:        make(map[string]string),
		DefaultKeyValue: make(map[string]string),
	}
	logOpts := &LogOptions{IsConsole: true}

	addStandardFlags(runOpts, logOpts)

	flag.Parse()

	kvIni, err := NewIni(runOpts.iniPath)
	if err != nil {
		return nil, nil, err
	}
	if kvIni != nil {
		runOpts.KeyValue = kvIni
	}

	// command-line arguments override ini-file values
	flag.Visit(func(f *flag.Flag) {
		if f.Name == OptionsFile || f.Name == OptionsFileShort {
			runOpts.KeyValue[OptionsFile] = runOpts.iniPath
			return
		}
		if f.Name == LogToConsole || f.Name == LogToConsoleShort {
			runOpts.KeyValue[LogToConsole] = strconv.FormatBool(logOpts.IsConsole)
			return
		}
		for _, fs := range optFs {
			if f.Name == fs.full || f.Name == fs.short {
				runOpts.KeyValue[fs.full] = f.Value.String()
				return
			}
		}
		runOpts.KeyValue[f.Name] = f.Value.String()
	})

	// record non-empty flag defaults, used only if no ini/command-line value exists
	flag.VisitAll(func(f *flag.Flag) {
		if f.DefValue == "" {
			return
		}
		n := f.Name
		if n == OptionsFileShort {
			n = OptionsFile
		}
		if n == LogToConsoleShort {
			n = LogToConsole
		}
		for _, fs := range optFs {
			if n == fs.short {
				n = fs.full
			}
		}
		if runOpts.DefaultKeyValue[n] == "" {
			runOpts.DefaultKeyValue[n] = f.DefValue
		}
	})

	adjustLogOptions(runOpts, logOpts)
	return runOpts, logOpts, nil
}

// IsExist returns true if key is defined as a command-line argument or
// ini-file option.
func (opts *RunOptions) IsExist(key string) bool {
	if opts == nil || opts.KeyValue == nil {
		return false
	}
	_, ok := opts.KeyValue[key]
	return ok
}

// String returns the value of key: command-line argument, ini-file option,
// or command-line default, in that priority order.
func (opts *RunOptions) String(key string) string {
	val, _, _ := opts.StringExist(key)
	return val
}

// StringExist returns the value of key and two flags: isExist is true if
// the value came from a command-line argument or ini-file option,
// isDefaultArg is true if it came from a non-empty flag default.
func (opts *RunOptions) StringExist(key string) (val string, isExist, isDefaultArg bool) {
	if opts == nil || opts.KeyValue == nil {
		return "", false, false
	}
	if val, isExist = opts.KeyValue[key]; isExist {
		return val, isExist, false
	}
	val, isDefaultArg = opts.DefaultKeyValue[key]
	return val, false, isDefaultArg
}

// Bool returns the boolean value of key, or false if it is missing or not
// parseable (see strconv.ParseBool).
func (opts *RunOptions) Bool(key string) bool {
	sVal, isExist, _ := opts.StringExist(key)
	if !isExist || sVal == "" {
		return false
	}
	if val, err := strconv.ParseBool(sVal); err == nil {
		return val
	}
	return false
}

// Int returns the integer value of key, or defaultValue if it is missing
// or not parseable.
func (opts *RunOptions) Int(key string, defaultValue int) int {
	sVal, isExist, _ := opts.StringExist(key)
	if !isExist || sVal == "" {
		return defaultValue
	}
	if val, err := strconv.Atoi(sVal); err == nil {
		return val
	}
	return defaultValue
}

// make "standard" config options available as command-line flags
func addStandardFlags(runOpts *RunOptions, logOpts *LogOptions) {

	flag.StringVar(&runOpts.iniPath, OptionsFile, "", "path to `ini-file`")
	flag.StringVar(&runOpts.iniPath, OptionsFileShort, "", "path to `ini-file` (short of "+OptionsFile+")")

	flag.BoolVar(&logOpts.IsConsole, LogToConsole, true, "if true then log to standard error")
	flag.BoolVar(&logOpts.IsConsole, LogToConsoleShort, true, "if true then log to standard error (short of "+LogToConsole+")")
	flag.BoolVar(&logOpts.IsFile, LogToFile, false, "if true then log to file")
	flag.StringVar(&logOpts.LogPath, LogFilePath, "", "path to log file")
	flag.BoolVar(&logOpts.IsDaily, LogUseDaily, false, "if true then log file name carries a daily date stamp")
	flag.BoolVar(&logOpts.IsNoMsgTime, LogNoMsgTime, false, "if true then do not prefix log messages with date-time")
	flag.BoolVar(&logOpts.IsLogSql, LogSql, false, "if true then log sql statements")

	_ = flag.String(LeftConnection, "", "left side database connection string")
	_ = flag.String(LeftDriver, "", "left side database driver name: odbc or sqlite3")
	_ = flag.String(RightConnection, "", "right side database connection string")
	_ = flag.String(RightDriver, "", "right side database driver name: odbc or sqlite3")
	_ = flag.String(Table, "", "table name, same on both sides")
	_ = flag.String(KeyCols, "", "comma-separated primary key column list")
	_ = flag.String(ValueCols, "", "comma-separated compared column list")
	_ = flag.String(Where, "", "row filter applied to both sides")
	_ = flag.Int(FactorShort, 0, "cascade fan-out factor (short of "+Factor+")")
	_ = flag.Int(Factor, 0, "cascade fan-out factor")
	_ = flag.Int(MaxLevels, 0, "cap on cascade depth, 0 = unlimited")
	_ = flag.Int(MaxReport, 0, "effort cap on rows investigated per level, 0 = default 32, negative = unlimited")
	_ = flag.String(Prefix, "", "working table name prefix")
	_ = flag.Bool(Temporary, false, "create cascade tables as TEMPORARY")
	_ = flag.Bool(Parallel, false, "build and walk both sides concurrently")
	_ = flag.Int(VerboseShort, 0, "diagnostic verbosity 0..3 (short of "+Verbose+")")
	_ = flag.Int(Verbose, 0, "diagnostic verbosity 0..3")
}

// adjustLogOptions merges command-line arguments and ini-file options into
// a final, consistent LogOptions: makes sure that if LogToFile is set then
// a log file path is defined, and vice versa, and records whether the log
// file name is to carry a daily stamp (dlog applies the stamp).
func adjustLogOptions(runOpts *RunOptions, logOpts *LogOptions) {

	if logOpts.LogPath != "" || logOpts.IsFile || runOpts.Bool(LogToFile) {
		logOpts.IsFile = true
		runOpts.KeyValue[LogToFile] = strconv.FormatBool(logOpts.IsFile)
	}

	if logOpts.IsFile && logOpts.LogPath == "" {

		logOpts.LogPath = runOpts.String(LogFilePath)

		if logOpts.LogPath == "" {
			_, exeName := filepath.Split(os.Args[0])
			ext := filepath.Ext(exeName)
			if ext != "" {
				exeName = exeName[:len(exeName)-len(ext)]
			}
			logOpts.LogPath = exeName + ".log"
		}
	}

	logOpts.IsConsole = !runOpts.IsExist(LogToConsole) || runOpts.Bool(LogToConsole)
	logOpts.IsDaily = runOpts.Bool(LogUseDaily)
	logOpts.IsNoMsgTime = runOpts.Bool(LogNoMsgTime)
	logOpts.IsLogSql = runOpts.Bool(LogSql)

	runOpts.KeyValue[LogFilePath] = logOpts.LogPath
}
