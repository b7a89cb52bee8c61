package gate

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is a threshold comparison. The set is closed; anything else is a
// configuration error at criterion-create time.
type Operator string

const (
	OpGTE Operator = ">="
	OpLTE Operator = "<="
	OpEQ  Operator = "=="
	OpGT  Operator = ">"
	OpLT  Operator = "<"
)

var operators = map[Operator]struct{}{
	OpGTE: {},
	OpLTE: {},
	OpEQ:  {},
	OpGT:  {},
	OpLT:  {},
}

func ParseOperator(raw string) (Operator, error) {
	op := Operator(strings.TrimSpace(raw))
	if _, ok := operators[op]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, raw)
	}
	return op, nil
}

// Compare applies the operator with exact float comparison. Thresholds and
// resolved metrics are round numbers (percentages, counts), so no epsilon.
func (op Operator) Compare(actual float64, threshold float64) bool {
	switch op {
	case OpGTE:
		return actual >= threshold
	case OpLTE:
		return actual <= threshold
	case OpEQ:
		return actual == threshold
	case OpGT:
		return actual > threshold
	case OpLT:
		return actual < threshold
	default:
		return false
	}
}

// ParseThreshold parses the string-encoded threshold. A malformed value
// degrades to 0.0 instead of failing the run; callers log the degradation.
func ParseThreshold(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Outcome is one criterion's result within a single evaluation run.
type Outcome struct {
	CriterionID uint64
	Name        string
	Type        CriteriaType
	Operator    Operator
	Threshold   string
	Actual      float64
	Passed      bool
	Blocking    bool
}

// Note renders the comparison in human-readable form for the audit row.
func (o Outcome) Note() string {
	verdict := "FAIL"
	if o.Passed {
		verdict = "PASS"
	}
	return fmt.Sprintf("%s %s %s -> %s", formatMetric(o.Actual), o.Operator, strings.TrimSpace(o.Threshold), verdict)
}

// Verdict aggregates a run's outcomes into the gate decision.
type Verdict struct {
	AllPassed          bool
	HasBlockingFailure bool
	CanProceed         bool
	PassedCount        int
	TotalCount         int
	Summary            string
}

// Aggregate derives the gate verdict. A failed non-blocking criterion
// downgrades the verdict to a warning but never blocks; only a failed
// blocking criterion withholds CanProceed.
func Aggregate(outcomes []Outcome) Verdict {
	v := Verdict{TotalCount: len(outcomes)}

	failed := 0
	blockingFailed := 0
	for _, o := range outcomes {
		if o.Passed {
			v.PassedCount++
			continue
		}
		failed++
		if o.Blocking {
			blockingFailed++
		}
	}

	v.AllPassed = failed == 0
	v.HasBlockingFailure = blockingFailed > 0
	v.CanProceed = !v.HasBlockingFailure

	switch {
	case len(outcomes) == 0:
		v.AllPassed = true
		v.CanProceed = true
		v.Summary = "NO CRITERIA - gate passes vacuously"
	case v.HasBlockingFailure:
		v.Summary = fmt.Sprintf("BLOCKED - %d criteria failed (%d blocking)", failed, blockingFailed)
	case v.AllPassed:
		v.Summary = fmt.Sprintf("ALL PASSED - %d/%d criteria met", v.PassedCount, v.TotalCount)
	default:
		v.Summary = fmt.Sprintf("WARNINGS - %d/%d passed, non-blocking failures", v.PassedCount, v.TotalCount)
	}

	return v
}

// ScorecardStatus is the deduplicated latest-per-criterion view.
type ScorecardStatus string

const (
	StatusNotEvaluated ScorecardStatus = "not_evaluated"
	StatusGo           ScorecardStatus = "go"
	StatusWarning      ScorecardStatus = "warning"
	StatusBlocked      ScorecardStatus = "blocked"
)

// ScorecardFrom maps latest-per-criterion outcomes to a status, reusing the
// blocking-failure logic of Aggregate.
func ScorecardFrom(outcomes []Outcome) ScorecardStatus {
	if len(outcomes) == 0 {
		return StatusNotEvaluated
	}

	v := Aggregate(outcomes)
	switch {
	case v.HasBlockingFailure:
		return StatusBlocked
	case v.AllPassed:
		return StatusGo
	default:
		return StatusWarning
	}
}

// formatMetric trims trailing zeros so "87.50" renders as "87.5" and "3.00"
// as "3" in notes and API payloads.
func formatMetric(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// FormatMetric is the exported form used by persistence and transport so the
// string encoding of actual values is uniform everywhere.
func FormatMetric(value float64) string {
	return formatMetric(value)
}
