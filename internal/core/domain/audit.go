package domain

// Severity classifies an audit finding.
type Severity string

const (
	// SeverityError marks a schema violation (empty name, no destinations, NaN/Inf).
	SeverityError Severity = "error"
	// SeverityAnomaly marks a coordinate outside its conventional range.
	// Anomalies are reported but the value is never rewritten.
	SeverityAnomaly Severity = "anomaly"
)

// AuditIssue is a single finding against one field of the table.
type AuditIssue struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"` // e.g. routes[0].destinations[6].lon
	Name     string   `json:"name,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Message  string   `json:"message"`
}

// AuditReport is the result of checking a route table.
type AuditReport struct {
	Routes    int          `json:"routes"`
	Points    int          `json:"points"`
	Bounds    *Bounds      `json:"bounds,omitempty"`
	Errors    []AuditIssue `json:"errors"`
	Anomalies []AuditIssue `json:"anomalies"`
}

// Valid reports whether the table has no schema errors. Anomalies do not count.
func (r *AuditReport) Valid() bool {
	return len(r.Errors) == 0
}
