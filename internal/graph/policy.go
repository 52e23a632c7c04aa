package graph

// PolicyMode selects how a cycle policy reconciles an exhausted budget with
// a router that still asks for another cycle.
type PolicyMode string

const (
	// PolicyModeForce overrides the router once the budget is exhausted and
	// sends the branch to the policy's fallback stage. This accepts a
	// degraded result rather than looping forever and is the default.
	PolicyModeForce PolicyMode = "force"

	// PolicyModeObserve records cycles without ever overriding the router.
	// The counter stops incrementing at MaxCycles. Termination is then the
	// router's responsibility; use only with routers that are known to
	// eventually proceed.
	PolicyModeObserve PolicyMode = "observe"
)

// CyclePolicy bounds how many times a branch may take a backward edge
// through a conditional route. Each conditional edge that can cycle carries
// its own policy, so different branches can run different budgets.
type CyclePolicy struct {
	// MaxCycles is the budget: a cycle is only taken while the counter is
	// below this value, and taking it increments the counter.
	MaxCycles int

	// CounterKey is the state field that holds this branch's cycle count.
	// It lives in the branch's namespace so parallel branches never share
	// a counter.
	CounterKey string

	// Fallback is the stage the branch is forced onto once the budget is
	// exhausted, regardless of the router's preference.
	Fallback string

	// Mode selects the reconciliation behavior. The zero value is treated
	// as PolicyModeForce.
	Mode PolicyMode
}

// exhaustedSuffix is appended to CounterKey to form the state field that
// flags a forced, budget-exhausted routing decision.
const exhaustedSuffix = "_exhausted"

// ExhaustedKey returns the state field set to true when this policy forces
// the branch forward. Downstream stages use it to flag degraded output.
func (p *CyclePolicy) ExhaustedKey() string {
	return p.CounterKey + exhaustedSuffix
}

// mode returns the effective mode, defaulting the zero value to force.
func (p *CyclePolicy) mode() PolicyMode {
	if p.Mode == "" {
		return PolicyModeForce
	}
	return p.Mode
}

// decide resolves a requested backward transition against the current
// counter value. It returns the stage the branch should actually visit,
// whether the counter should be incremented, and whether the budget was
// exhausted (router overridden).
func (p *CyclePolicy) decide(requested string, counter int) (next string, increment, exhausted bool) {
	if counter < p.MaxCycles {
		return requested, true, false
	}
	if p.mode() == PolicyModeObserve {
		return requested, false, false
	}
	return p.Fallback, false, true
}
