package usecases

import (
	"fmt"

	"github.com/samirrijal/arcglobe/internal/core/domain"
	"github.com/samirrijal/arcglobe/internal/pkg/geospatial"
)

// Audit checks a route table for schema errors and out-of-range coordinates.
// It only reads routes; anomalous values are reported, never corrected.
func Audit(routes []domain.Route) domain.AuditReport {
	report := domain.AuditReport{
		Routes:    len(routes),
		Errors:    []domain.AuditIssue{},
		Anomalies: []domain.AuditIssue{},
	}

	for i, r := range routes {
		prefix := fmt.Sprintf("routes[%d]", i)
		auditPoint(&report, prefix+".origin", r.Origin)

		if len(r.Destinations) == 0 {
			report.Errors = append(report.Errors, domain.AuditIssue{
				Severity: domain.SeverityError,
				Path:     prefix + ".destinations",
				Name:     r.Origin.Name,
				Message:  "route has no destinations",
			})
		}
		for j, d := range r.Destinations {
			auditPoint(&report, fmt.Sprintf("%s.destinations[%d]", prefix, j), d)
		}
	}

	return report
}

func auditPoint(report *domain.AuditReport, path string, p domain.GeoPoint) {
	report.Points++

	if p.Name == "" {
		report.Errors = append(report.Errors, domain.AuditIssue{
			Severity: domain.SeverityError,
			Path:     path + ".name",
			Message:  "name must not be empty",
		})
	}

	latOK := checkFinite(report, path+".lat", p, p.Lat)
	lonOK := checkFinite(report, path+".lon", p, p.Lon)

	if latOK && !geospatial.LatitudeInRange(p.Lat) {
		report.Anomalies = append(report.Anomalies, issue(domain.SeverityAnomaly, path+".lat", p, p.Lat,
			fmt.Sprintf("latitude outside [%g, %g]", geospatial.MinLatitude, geospatial.MaxLatitude)))
	}
	if lonOK && !geospatial.LongitudeInRange(p.Lon) {
		report.Anomalies = append(report.Anomalies, issue(domain.SeverityAnomaly, path+".lon", p, p.Lon,
			fmt.Sprintf("longitude outside [%g, %g)", geospatial.MinLongitude, geospatial.MaxLongitude)))
	}

	// Non-finite values would poison the box.
	if !latOK || !lonOK {
		return
	}
	if report.Bounds == nil {
		b := domain.PointBounds(p)
		report.Bounds = &b
	} else {
		report.Bounds.Extend(p)
	}
}

func checkFinite(report *domain.AuditReport, path string, p domain.GeoPoint, v float64) bool {
	if geospatial.Finite(v) {
		return true
	}
	// NaN and Inf cannot be encoded as JSON numbers, so no Value here.
	report.Errors = append(report.Errors, domain.AuditIssue{
		Severity: domain.SeverityError,
		Path:     path,
		Name:     p.Name,
		Message:  fmt.Sprintf("coordinate is not finite (%v)", v),
	})
	return false
}

func issue(sev domain.Severity, path string, p domain.GeoPoint, v float64, msg string) domain.AuditIssue {
	return domain.AuditIssue{Severity: sev, Path: path, Name: p.Name, Value: &v, Message: msg}
}
