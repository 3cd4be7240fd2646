package sim

import (
	"fmt"
	"time"

	"mealroute/internal/opt"
)

// DispatchPolicy decides when a planned route actually leaves the depot.
type DispatchPolicy interface {
	// DepartureDelay returns minutes to hold a route at the depot, given its
	// schedule as evaluated for immediate departure and the gap until the
	// next decision tick. Must never introduce lateness.
	DepartureDelay(p *opt.Problem, plan opt.RoutePlan, nextTickMin float64) float64
}

// ASAPPolicy departs every planned route at the current clock.
type ASAPPolicy struct{}

func (ASAPPolicy) DepartureDelay(*opt.Problem, opt.RoutePlan, float64) float64 { return 0 }

// JITPolicy holds a route back by the smaller of its slack and the time to
// the next decision tick, letting near-future orders consolidate onto the
// same vehicle without making anything late.
type JITPolicy struct{}

func (JITPolicy) DepartureDelay(p *opt.Problem, plan opt.RoutePlan, nextTickMin float64) float64 {
	if len(plan.Order) == 0 {
		return 0
	}
	slack := p.Slack(plan.Order, plan.Schedule)
	if slack <= 0 {
		return 0
	}
	delay := slack
	if nextTickMin < delay {
		delay = nextTickMin
	}
	if delay < 0 {
		return 0
	}
	return delay
}

// NewDispatchPolicy maps the configuration tag to a policy.
func NewDispatchPolicy(tag string) (DispatchPolicy, error) {
	switch tag {
	case "asap":
		return ASAPPolicy{}, nil
	case "jit":
		return JITPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown dispatch_policy %q", tag)
}

func minutesBetween(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}
