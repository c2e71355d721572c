package bookgen

import "time"

// Illustration outcomes reported to an Observer.
const (
	OutcomeIllustrated = "illustrated"
	OutcomeFallback    = "fallback"
	OutcomeFailed      = "failed"
)

// Observer receives pipeline outcomes, typically for metrics.
type Observer interface {
	ObserveIllustration(outcome string)
	ObserveGeneration(status string, dur time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveIllustration(string) {}
func (nopObserver) ObserveGeneration(string, time.Duration) {}

func orNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
