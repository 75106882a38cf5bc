package metrics

import "github.com/prometheus/client_golang/prometheus"

// BuilderMetrics records quote builder health signals.
type BuilderMetrics struct {
	autosaveFailures prometheus.Counter
	templateSaves    prometheus.Counter
	submissions      prometheus.Counter
}

// NewBuilderMetrics registers the builder metrics on the provided registerer.
func NewBuilderMetrics(reg prometheus.Registerer) *BuilderMetrics {
	if reg == nil {
		return &BuilderMetrics{}
	}
	autosaveFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_draft_autosave_failures",
		Help: "Draft autosaves that failed and degraded to a response warning.",
	})
	templateSaves := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_template_saves",
		Help: "Quote templates saved.",
	})
	submissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_submissions",
		Help: "Quotes submitted.",
	})
	reg.MustRegister(autosaveFailures, templateSaves, submissions)
	return &BuilderMetrics{
		autosaveFailures: autosaveFailures,
		templateSaves:    templateSaves,
		submissions:      submissions,
	}
}

// IncAutosaveFailure increments the autosave failure counter.
func (b *BuilderMetrics) IncAutosaveFailure() {
	if b == nil || b.autosaveFailures == nil {
		return
	}
	b.autosaveFailures.Inc()
}

// IncTemplateSave increments the template save counter.
func (b *BuilderMetrics) IncTemplateSave() {
	if b == nil || b.templateSaves == nil {
		return
	}
	b.templateSaves.Inc()
}

// IncSubmission increments the quote submission counter.
func (b *BuilderMetrics) IncSubmission() {
	if b == nil || b.submissions == nil {
		return
	}
	b.submissions.Inc()
}
