package parser

// outcome tells the rule evaluator whether a matched rule consumed the row.
type outcome int

const (
	next outcome = iota // keep evaluating the following rules
	stop                // row handled, stop evaluating
)

// rule is one (predicate, action) pair. Rules are evaluated top to bottom
// and the first matching rule whose action returns stop decides the row.
type rule[T any] struct {
	name string
	when func(T) bool
	then func(T) outcome
}

// evaluate runs rules against row and returns the name of the deciding rule,
// or "" when no rule stopped.
func evaluate[T any](rules []rule[T], row T) string {
	for _, r := range rules {
		if !r.when(row) {
			continue
		}
		if r.then == nil || r.then(row) == stop {
			return r.name
		}
	}
	return ""
}

func always[T any](T) bool { return true }

func drop[T any](T) outcome { return stop }
