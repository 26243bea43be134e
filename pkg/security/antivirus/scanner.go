package antivirus

import (
	"context"
	"io"
)

// ScanResult contains the result of a malware scan
type ScanResult struct {
	Infected    bool   // True if malware was detected
	ThreatName  string // Name of detected threat (empty if clean)
	ScannerName string // Name of scanner that produced this result
	Error       error  // Scan could not complete; Infected is meaningless
}

// Scanner is the interface for pluggable antivirus implementations.
// Results are advisory: callers record them, they do not block workflow.
type Scanner interface {
	Scan(ctx context.Context, filename string, data io.Reader) ScanResult

	// Name returns the scanner implementation name (for logging)
	Name() string
}

// NoOpScanner reports every file clean. Used when no clamd is configured.
type NoOpScanner struct{}

var _ Scanner = (*NoOpScanner)(nil)

func NewNoOpScanner() *NoOpScanner {
	return &NoOpScanner{}
}

func (n *NoOpScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	_, err := io.Copy(io.Discard, data)
	return ScanResult{ScannerName: n.Name(), Error: err}
}

func (n *NoOpScanner) Name() string {
	return "noop"
}
