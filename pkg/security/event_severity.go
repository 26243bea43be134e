package security

import "go.uber.org/zap/zapcore"

// Severity represents the severity level of a security event
// This is derived from EventType, NOT user-provided
type Severity string

const (
	SeverityINFO     Severity = "INFO"
	SeverityMEDIUM   Severity = "MEDIUM"
	SeverityWARN     Severity = "WARN"
	SeverityHIGH     Severity = "HIGH"
	SeverityCRITICAL Severity = "CRITICAL"
)

// Additional event types
const (
	EventCSRFViolation EventType = "csrf_violation"
	EventDataExport    EventType = "data_export"
)

// EventSeverityMap defines the hard-coded severity for each event type
var EventSeverityMap = map[EventType]Severity{
	EventDataExport: SeverityMEDIUM,

	EventTokenInvalid:       SeverityWARN,
	EventRateLimitTriggered: SeverityWARN,
	EventContentMismatch:    SeverityWARN,

	EventUnauthorizedAccess: SeverityHIGH,
	EventForbiddenAccess:    SeverityHIGH,
	EventCSRFViolation:      SeverityHIGH,

	EventContentThreat: SeverityCRITICAL,
}

// GetSeverity returns the severity for an event type
// If the event type is not mapped, defaults to MEDIUM
func GetSeverity(eventType EventType) Severity {
	if severity, ok := EventSeverityMap[eventType]; ok {
		return severity
	}
	return SeverityMEDIUM
}

// IsHighOrAbove returns true if the event is HIGH or CRITICAL severity
func IsHighOrAbove(eventType EventType) bool {
	s := GetSeverity(eventType)
	return s == SeverityHIGH || s == SeverityCRITICAL
}

func (s Severity) zapLevel() zapcore.Level {
	switch s {
	case SeverityINFO, SeverityMEDIUM:
		return zapcore.InfoLevel
	case SeverityWARN:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
