package gate

import "fmt"

// GateType identifies the checkpoint a set of criteria belongs to.
type GateType string

const (
	GateCycleExit   GateType = "cycle_exit"
	GatePlanExit    GateType = "plan_exit"
	GateReleaseGate GateType = "release_gate"
)

// EntityType identifies what kind of artifact is being gated.
type EntityType string

const (
	EntityTestCycle EntityType = "test_cycle"
	EntityTestPlan  EntityType = "test_plan"
	EntityRelease   EntityType = "release"
)

// CriteriaType selects the metric a criterion is measured against.
type CriteriaType string

const (
	CriteriaPassRate         CriteriaType = "pass_rate"
	CriteriaDefectCount      CriteriaType = "defect_count"
	CriteriaCoverage         CriteriaType = "coverage"
	CriteriaExecutionDone    CriteriaType = "execution_complete"
	CriteriaApprovalComplete CriteriaType = "approval_complete"
	CriteriaSLACompliance    CriteriaType = "sla_compliance"
	CriteriaCustom           CriteriaType = "custom"
)

var gateTypes = map[GateType]struct{}{
	GateCycleExit:   {},
	GatePlanExit:    {},
	GateReleaseGate: {},
}

var entityTypes = map[EntityType]struct{}{
	EntityTestCycle: {},
	EntityTestPlan:  {},
	EntityRelease:   {},
}

var criteriaTypes = map[CriteriaType]struct{}{
	CriteriaPassRate:         {},
	CriteriaDefectCount:      {},
	CriteriaCoverage:         {},
	CriteriaExecutionDone:    {},
	CriteriaApprovalComplete: {},
	CriteriaSLACompliance:    {},
	CriteriaCustom:           {},
}

func ParseGateType(raw string) (GateType, error) {
	gt := GateType(raw)
	if _, ok := gateTypes[gt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidGateType, raw)
	}
	return gt, nil
}

func ParseEntityType(raw string) (EntityType, error) {
	et := EntityType(raw)
	if _, ok := entityTypes[et]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityType, raw)
	}
	return et, nil
}

func ParseCriteriaType(raw string) (CriteriaType, error) {
	ct := CriteriaType(raw)
	if _, ok := criteriaTypes[ct]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCriteriaType, raw)
	}
	return ct, nil
}

// CriteriaTypes returns the closed set in a stable order, for validation
// messages and resolver table checks.
func CriteriaTypes() []CriteriaType {
	return []CriteriaType{
		CriteriaPassRate,
		CriteriaDefectCount,
		CriteriaCoverage,
		CriteriaExecutionDone,
		CriteriaApprovalComplete,
		CriteriaSLACompliance,
		CriteriaCustom,
	}
}
