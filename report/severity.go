package report

import (
	"github.com/vkngwrapper/core/v2/common"
)

// Severity is a bitmask classifying a single diagnostic message. A Reporter
// only forwards messages whose severity bit is present in its active flags.
type Severity int32

var severityMapping = common.NewFlagStringMapping[Severity]()

func (s Severity) Register(str string) {
	severityMapping.Register(s, str)
}
func (s Severity) String() string {
	return severityMapping.FlagsToString(s)
}

const (
	// SeverityInfo marks purely informational messages, such as the state
	// dumps written before device teardown
	SeverityInfo Severity = 1 << iota
	// SeverityWarn marks misuse that the tracker can tolerate, such as
	// resetting a fence that was never signaled
	SeverityWarn
	// SeverityError marks misuse that advises skipping the intercepted call
	SeverityError
	// SeverityDebug marks internal tracker chatter
	SeverityDebug
	// SeverityPerfWarn marks usage that is legal but likely slow
	SeverityPerfWarn
)

func init() {
	SeverityInfo.Register("INFO")
	SeverityWarn.Register("WARN")
	SeverityError.Register("ERROR")
	SeverityDebug.Register("DEBUG")
	SeverityPerfWarn.Register("PERF_WARN")
}
