package errors

// Kind classifies an Error for retry/escalation purposes, per the driver's
// three-way error handling split (transient / restart / fatal).
type Kind int

const (
	// KindFatal is the default for any error not matching a known
	// transient or restart-requiring type: configuration errors, unknown
	// command types, permission failures, critical hardware faults.
	KindFatal Kind = iota
	// KindTransient errors trigger the breaker; the pipeline retries at
	// scaled intervals and the status handler reports a warning, not a
	// failure.
	KindTransient
	// KindRestart errors cause the owning task to be stopped and
	// restarted without user intervention.
	KindRestart
)

// Canonical transient/restart type strings. Integrations are expected to
// normalize their native error types to these before the error reaches the
// driver core; this list is the single canonical mapping target referenced
// by spec Open Question (a) (integrations otherwise disagree on naming,
// e.g. EtherCAT has two distinct "device disconnected" variants upstream).
const (
	TypeUnreachable          = "driver.unreachable"
	TypeStreamClosed         = "driver.stream_closed"
	TypeDeviceDisconnected   = "driver.device_disconnected"
	TypeResourceNotAvailable = "driver.resource_not_available"
	TypeStreamNotInitialized = "driver.stream_not_initialized"
	TypeResourceReserved     = "driver.resource_reserved"
	TypeRoutingError         = "driver.routing_error"
)

var transientTypes = []string{
	TypeUnreachable,
	TypeStreamClosed,
	TypeDeviceDisconnected,
	TypeResourceNotAvailable,
	TypeStreamNotInitialized,
}

var restartTypes = []string{
	TypeResourceReserved,
	TypeRoutingError,
}

// ClassifyKind returns e's Kind by prefix-matching against the canonical
// transient and restart-requiring type lists. Anything else is fatal.
func ClassifyKind(e Error) Kind {
	if e.Ok() {
		return KindFatal
	}
	for _, t := range transientTypes {
		if e.Matches(t) {
			return KindTransient
		}
	}
	for _, t := range restartTypes {
		if e.Matches(t) {
			return KindRestart
		}
	}
	return KindFatal
}

// IsTransient is shorthand for ClassifyKind(e) == KindTransient.
func IsTransient(e Error) bool { return ClassifyKind(e) == KindTransient }

// IsRestart is shorthand for ClassifyKind(e) == KindRestart.
func IsRestart(e Error) bool { return ClassifyKind(e) == KindRestart }

// Unreachable, StreamClosed and friends are convenience constructors for
// the canonical transient/restart errors.
func Unreachable(data string) Error        { return New(TypeUnreachable, data) }
func StreamClosed(data string) Error       { return New(TypeStreamClosed, data) }
func DeviceDisconnected(data string) Error { return New(TypeDeviceDisconnected, data) }
func ResourceReserved(data string) Error   { return New(TypeResourceReserved, data) }
