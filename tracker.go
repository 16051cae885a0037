package memtrack

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/extensions/v2/ext_debug_report"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
	"github.com/vkngwrapper/memtrack/config"
	"github.com/vkngwrapper/memtrack/internal/state"
	"github.com/vkngwrapper/memtrack/internal/utils"
	"github.com/vkngwrapper/memtrack/report"
	"golang.org/x/exp/slog"
)

// The process-wide registry hands every instance the shared core lock. The
// lock is created with the first live instance and dropped with the last.
var layerRegistry struct {
	mu        sync.Mutex
	instances int
	coreLock  *sync.Mutex
}

func registerInstance() *sync.Mutex {
	layerRegistry.mu.Lock()
	defer layerRegistry.mu.Unlock()

	if layerRegistry.instances == 0 {
		layerRegistry.coreLock = &sync.Mutex{}
	}
	layerRegistry.instances++
	return layerRegistry.coreLock
}

func unregisterInstance() {
	layerRegistry.mu.Lock()
	defer layerRegistry.mu.Unlock()

	layerRegistry.instances--
	if layerRegistry.instances == 0 {
		layerRegistry.coreLock = nil
	}
}

// InstanceTracker is the per-instance layer state: the diagnostic reporter
// with its registered sinks, plus a reference to the process-wide core
// lock.
type InstanceTracker struct {
	logger   *slog.Logger
	reporter *report.Reporter
	coreLock *sync.Mutex
}

// NewInstanceTracker builds the reporter from the loaded layer settings and
// registers the instance with the process-wide registry.
func NewInstanceTracker(logger *slog.Logger, options config.Options) (*InstanceTracker, error) {
	if logger == nil {
		return nil, errors.New("attempted to create an instance tracker with a nil logger")
	}

	reporter := report.NewReporter(options.ReportFlags)

	if options.DebugAction&config.ActionLog != 0 {
		sink, err := report.NewFileSink(options.LogFilename)
		if err != nil {
			return nil, err
		}
		reporter.RegisterSink(sink)
	}
	if options.DebugAction&config.ActionDebugOutput != 0 {
		reporter.RegisterSink(report.NewLogSink(os.Stderr))
	}
	if options.DebugAction&config.ActionBreak != 0 {
		logger.Warn("debugger break on diagnostics is not supported on this platform, ignoring")
	}

	return &InstanceTracker{
		logger:   logger,
		reporter: reporter,
		coreLock: registerInstance(),
	}, nil
}

func (i *InstanceTracker) Reporter() *report.Reporter {
	return i.reporter
}

// RegisterCallback attaches an additional diagnostic sink. Sinks are closed
// in reverse registration order when the instance is destroyed.
func (i *InstanceTracker) RegisterCallback(sink report.Sink) {
	i.reporter.RegisterSink(sink)
}

// Destroy tears down the reporter's sinks in reverse order and releases the
// instance's hold on the process-wide registry.
func (i *InstanceTracker) Destroy() error {
	err := i.reporter.Teardown()
	unregisterInstance()
	return err
}

// CreateFlags indicate specific tracker behaviors to activate or deactivate
type CreateFlags int32

var trackerCreateFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	trackerCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return trackerCreateFlagsMapping.FlagsToString(f)
}

const (
	// TrackerCreateExternallySynchronized ensures that this tracker will not
	// be synchronized internally. The consumer must guarantee the
	// intercepted API is called from only one thread at a time or is
	// synchronized by some other mechanism.
	TrackerCreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	TrackerCreateExternallySynchronized.Register("TrackerCreateExternallySynchronized")
}

// CreateOptions contains optional settings when creating a tracker
type CreateOptions struct {
	// Flags indicates specific tracker behaviors to activate or deactivate
	Flags CreateFlags
	// EnabledExtensions is the extension-name list the device was created
	// with; the swapchain extension enables WSI tracking
	EnabledExtensions []string
	// MemoryProperties is the device memory-properties snapshot used by the
	// host-visibility check in MapMemory
	MemoryProperties core1_0.PhysicalDeviceMemoryProperties
}

// Tracker is the per-device validation core. Every intercepted device-level
// call runs through it: the tracker takes the core lock, records state and
// emits diagnostics, releases the lock, and forwards to the driver unless a
// validation rule advised skipping, in which case the call returns
// ext_debug_report.VKErrorValidationFailed instead.
type Tracker struct {
	logger   *slog.Logger
	reporter *report.Reporter
	driver   DeviceDriver
	device   state.Device

	lock  utils.OptionalMutex
	state *state.DeviceState
}

func NewTracker(instance *InstanceTracker, deviceDriver DeviceDriver, device state.Device, options CreateOptions) (*Tracker, error) {
	if instance == nil {
		return nil, errors.New("attempted to create a tracker with a nil instance tracker")
	}
	if deviceDriver == nil {
		return nil, errors.New("attempted to create a tracker with a nil device driver")
	}

	wsiEnabled := false
	for _, extension := range options.EnabledExtensions {
		if extension == khr_swapchain.ExtensionName {
			wsiEnabled = true
			break
		}
	}

	return &Tracker{
		logger:   instance.logger,
		reporter: instance.reporter,
		driver:   deviceDriver,
		device:   device,

		lock: utils.OptionalMutex{
			Mutex:    instance.coreLock,
			UseMutex: options.Flags&TrackerCreateExternallySynchronized == 0,
		},
		state: state.NewDeviceState(instance.logger, instance.reporter, options.MemoryProperties, wsiEnabled),
	}, nil
}

func validationFailed() (common.VkResult, error) {
	return ext_debug_report.VKErrorValidationFailed, ext_debug_report.VKErrorValidationFailed.ToError()
}

// BuildStateString returns a JSON dump of the memory-object and
// command-buffer tables.
func (t *Tracker) BuildStateString() string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.buildStateLocked()
}

func (t *Tracker) buildStateLocked() string {
	writer := jwriter.NewWriter()
	t.state.WriteState(&writer)
	return string(writer.Bytes())
}

// DestroyDevice dumps state summaries, clears every command buffer, reports
// leaked memory objects, and drops the queue table before forwarding.
// Forwarding is suppressed when any step advised skipping.
func (t *Tracker) DestroyDevice(callbacks *driver.AllocationCallbacks) (common.VkResult, error) {
	t.logger.Debug("Tracker::DestroyDevice")

	t.lock.Lock()
	if t.reporter.Active(report.SeverityInfo) {
		t.reporter.Log(report.SeverityInfo, report.ObjectDevice, uint64(t.device), report.CodeNone, state.PrefixMem,
			"State details prior to DestroyDevice: %s", t.buildStateLocked())
	}

	skip := t.state.TeardownCommandBuffers()
	if t.state.ReportMemoryLeaks() {
		skip = true
	}
	t.state.DropQueues()
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	t.driver.DestroyDevice(callbacks)
	return core1_0.VKSuccess, nil
}
