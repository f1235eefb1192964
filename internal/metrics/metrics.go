// Package metrics records save subsystem events: format detections, binary
// repairs, default genome syntheses, validation rejects and migrations.
package metrics

// Recorder receives save subsystem events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	FormatDetected(format string)
	Repaired(format string)
	DefaultSynthesized(root string)
	ValidationRejected(slot string)
	Migrated(from, to string)
}

// Event names shared by the recorders.
const (
	EventFormatDetected     = "format_detected"
	EventRepaired           = "repaired"
	EventDefaultSynthesized = "default_synthesized"
	EventValidationRejected = "validation_rejected"
	EventMigrated           = "migrated"
)

// Nop discards every event.
type Nop struct{}

func (Nop) FormatDetected(string)     {}
func (Nop) Repaired(string)           {}
func (Nop) DefaultSynthesized(string) {}
func (Nop) ValidationRejected(string) {}
func (Nop) Migrated(string, string)   {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
