package insights

import (
	"strings"

	"github.com/solardome/egra-insight/internal/report"
)

// auditLogger writes the run events of one analysis run. A nil logger drops
// every event so a run continues when the log file cannot be opened.
type auditLogger struct {
	delegate *report.AuditLogger
	dataset  string
}

func newAuditLogger(path, datasetPath string) (*auditLogger, error) {
	l, err := report.NewAuditLogger(path)
	if err != nil {
		return nil, err
	}
	return &auditLogger{delegate: l, dataset: datasetPath}, nil
}

func (l *auditLogger) close() {
	if l == nil || l.delegate == nil {
		return
	}
	l.delegate.Close()
}

func (l *auditLogger) info(event string, fields map[string]interface{}) {
	if l == nil || l.delegate == nil {
		return
	}
	l.delegate.Info(event, l.withDataset(fields))
}

func (l *auditLogger) warn(event string, fields map[string]interface{}) {
	if l == nil || l.delegate == nil {
		return
	}
	l.delegate.Warn(event, l.withDataset(fields))
}

// section records the outcome of one analysis.
func (l *auditLogger) section(sec Section) {
	if sec.Status == SectionSkipped {
		l.warn("run.analysis.skipped", map[string]interface{}{
			"analysis": sec.Analysis,
			"errors":   strings.Join(sec.Errors, "; "),
		})
		return
	}
	l.info("run.analysis.ok", map[string]interface{}{
		"analysis":     sec.Analysis,
		"results":      len(sec.results),
		"most_severe":  sec.Summary.MostSevere,
		"insufficient": sec.Summary.Insufficient,
	})
}

// artifactError records a failed write of report_json, report_html,
// report_csv or checksums.
func (l *auditLogger) artifactError(artifact, path string, err error) {
	l.warn("run."+artifact+".error", map[string]interface{}{"error": err.Error(), "path": path})
}

func (l *auditLogger) withDataset(fields map[string]interface{}) map[string]interface{} {
	if l.dataset == "" {
		return fields
	}
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	if _, ok := out["dataset_path"]; !ok {
		out["dataset_path"] = l.dataset
	}
	return out
}
