package gate

import "errors"

var (
	ErrInvalidGateType     = errors.New("invalid gate type")
	ErrInvalidEntityType   = errors.New("invalid gate entity type")
	ErrInvalidCriteriaType = errors.New("invalid criteria type")
	ErrInvalidOperator     = errors.New("invalid comparison operator")

	ErrCriterionNameRequired = errors.New("criterion name is required")
)
