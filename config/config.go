package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/memtrack/report"
)

// DebugAction selects what the tracker does with diagnostics that pass the
// severity filter.
type DebugAction int32

var debugActionMapping = common.NewFlagStringMapping[DebugAction]()

func (a DebugAction) Register(str string) {
	debugActionMapping.Register(a, str)
}
func (a DebugAction) String() string {
	return debugActionMapping.FlagsToString(a)
}

const (
	// ActionLog writes diagnostics to the configured log file, or standard
	// error when no file is configured
	ActionLog DebugAction = 1 << iota
	// ActionDebugOutput mirrors diagnostics to the platform debug stream.
	// There is no portable equivalent, so this selects a second stderr sink.
	ActionDebugOutput
	// ActionBreak requests a debugger break on each diagnostic. It parses
	// for settings-file compatibility but is ignored at sink construction.
	ActionBreak
)

func init() {
	ActionLog.Register("LOG")
	ActionDebugOutput.Register("DEBUG_OUTPUT")
	ActionBreak.Register("BREAK")
}

const (
	keyReportFlags = "MemTrackerReportFlags"
	keyDebugAction = "MemTrackerDebugAction"
	keyLogFilename = "MemTrackerLogFilename"

	// DefaultSettingsFile is the conventional layer-settings file name,
	// looked up relative to the working directory.
	DefaultSettingsFile = "vk_layer_settings.txt"
)

// Options carries the tracker settings read once at instance creation.
type Options struct {
	// ReportFlags is the severity mask of diagnostics to emit
	ReportFlags report.Severity
	// DebugAction selects the sink set built for the instance
	DebugAction DebugAction
	// LogFilename is the path the ActionLog sink appends to; empty selects
	// standard error
	LogFilename string
}

func defaultOptions() Options {
	return Options{
		ReportFlags: report.SeverityWarn | report.SeverityError,
		DebugAction: ActionLog,
	}
}

// Load reads settings from the provided settings file, when it exists, and
// then applies environment-variable overrides using the same key names. A
// missing file is not an error; a malformed value is.
func Load(path string) (Options, error) {
	options := defaultOptions()

	if path != "" {
		err := applyFile(&options, path)
		if err != nil {
			return options, err
		}
	}

	err := applyEnvironment(&options)
	return options, err
}

func applyFile(options *Options, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to open settings file %s", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		err = applySetting(options, strings.TrimSpace(key), strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(err, "settings file %s", path)
		}
	}
	return scanner.Err()
}

func applyEnvironment(options *Options) error {
	for _, key := range []string{keyReportFlags, keyDebugAction, keyLogFilename} {
		value, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		err := applySetting(options, key, value)
		if err != nil {
			return err
		}
	}
	return nil
}

func applySetting(options *Options, key, value string) error {
	switch key {
	case keyReportFlags:
		flags, err := parseSeverity(value)
		if err != nil {
			return err
		}
		options.ReportFlags = flags
	case keyDebugAction:
		action, err := parseDebugAction(value)
		if err != nil {
			return err
		}
		options.DebugAction = action
	case keyLogFilename:
		options.LogFilename = value
	}
	return nil
}

var severityNames = map[string]report.Severity{
	"info":      report.SeverityInfo,
	"warn":      report.SeverityWarn,
	"error":     report.SeverityError,
	"debug":     report.SeverityDebug,
	"perf_warn": report.SeverityPerfWarn,
}

func parseSeverity(value string) (report.Severity, error) {
	var flags report.Severity
	for _, name := range splitList(value) {
		severity, ok := severityNames[strings.ToLower(name)]
		if !ok {
			return 0, errors.Newf("unrecognized report flag %q", name)
		}
		flags |= severity
	}
	return flags, nil
}

var debugActionNames = map[string]DebugAction{
	"ignore":       0,
	"log":          ActionLog,
	"debug_output": ActionDebugOutput,
	"break":        ActionBreak,
}

func parseDebugAction(value string) (DebugAction, error) {
	var action DebugAction
	for _, name := range splitList(value) {
		bit, ok := debugActionNames[strings.ToLower(name)]
		if !ok {
			return 0, errors.Newf("unrecognized debug action %q", name)
		}
		action |= bit
	}
	return action, nil
}

func splitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '|' || r == ' '
	})
	return fields
}
