// Package metrics defines the custom Prometheus metrics of the ETIAAM API.
// They are registered with the default registry on import and exposed on
// /metrics next to the HTTP metrics collected by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "etiaam"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts accounts created.
// Label:
//   - role: "paciente" or "profesional"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered, by role.",
	},
	[]string{"role"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Evaluation metrics ────────────────────────────────────────────────────────

// EvaluationsTotal counts stored evaluations.
// Label:
//   - rater: "self" or "professional"
var EvaluationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluations_total",
		Help:      "Total number of evaluations stored, by rater.",
	},
	[]string{"rater"},
)

var CompetencyAssessmentsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "competency_assessments_total",
		Help:      "Total number of competency assessments stored.",
	},
)

// ── Work plan metrics ─────────────────────────────────────────────────────────

var PlansCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plans_created_total",
		Help:      "Total number of work plans created.",
	},
)

var PlansClosedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plans_closed_total",
		Help:      "Total number of work plans closed explicitly.",
	},
)

// IdempotentReplaysTotal counts submissions answered from the idempotency store.
// Label:
//   - resource: "evaluation" or "plan"
var IdempotentReplaysTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of submissions replayed by idempotency key.",
	},
	[]string{"resource"},
)
