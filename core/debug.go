package core

// DebugWriter is a function type for writing diagnostic lines.
// Targets route it to USB CDC or a UART; the host routes it to its logger.
type DebugWriter func(string)

// Log tags prefixed to diagnostic lines so a host can tell them apart
// from console replies.
const (
	TagRTC     = "[rtc] "
	TagConsole = "[console] "
)

// DiscardWriter drops every message.
func DiscardWriter(string) {}

// orDiscard never returns nil, so callers can write without checking.
func orDiscard(w DebugWriter) DebugWriter {
	if w == nil {
		return DiscardWriter
	}
	return w
}

// RecordingWriter keeps every line written to it. Used by tests and by
// the host simulator to replay a boot log.
type RecordingWriter struct {
	Lines []string
}

// Write appends a line
func (r *RecordingWriter) Write(msg string) {
	r.Lines = append(r.Lines, msg)
}

// Reset clears recorded lines
func (r *RecordingWriter) Reset() {
	r.Lines = r.Lines[:0]
}
