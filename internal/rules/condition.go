// internal/rules/condition.go

package rules

const (
	OperatorExists             = "exists"
	OperatorEqual              = "="
	OperatorNotEqual           = "<>"
	OperatorLessThan           = "<"
	OperatorLessThanOrEqual    = "<="
	OperatorGreaterThan        = ">"
	OperatorGreaterThanOrEqual = ">="
	OperatorContains           = "contains"
	OperatorNotContains        = "notcontains"
	OperatorContainsAtLeastOne = "containsatleastone"
	OperatorNotContainsAnyOne  = "notcontainsanyone"
)

var SupportedOperators = []string{
	OperatorExists,
	OperatorEqual,
	OperatorNotEqual,
	OperatorLessThan,
	OperatorLessThanOrEqual,
	OperatorGreaterThan,
	OperatorGreaterThanOrEqual,
	OperatorContains,
	OperatorNotContains,
	OperatorContainsAtLeastOne,
	OperatorNotContainsAnyOne,
}

// IsSupportedOperator reports whether op is one of SupportedOperators.
func IsSupportedOperator(op string) bool {
	for _, supported := range SupportedOperators {
		if op == supported {
			return true
		}
	}
	return false
}

// Assumption is a single condition clause of a rule.
type Assumption struct {
	LeftTerm  string `json:"leftTerm"`
	Operator  string `json:"op"`
	RightTerm string `json:"rightTerm"`
}

// Exists builds the single-term form of an assumption.
func Exists(term string) Assumption {
	return Assumption{LeftTerm: term, Operator: OperatorExists}
}

// NewAssumption builds a three-part assumption.
func NewAssumption(left, op, right string) Assumption {
	return Assumption{LeftTerm: left, Operator: op, RightTerm: right}
}

func (a Assumption) String() string {
	if a.Operator == OperatorExists && a.RightTerm == "" {
		return a.LeftTerm + " exists"
	}
	return a.LeftTerm + " " + a.Operator + " " + a.RightTerm
}
