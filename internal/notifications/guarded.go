package notifications

import (
	"github.com/ducminhle1904/prop-ledger/internal/safety"
)

// GuardedNotifier stops calling a failing notifier until its breaker cools down
type GuardedNotifier struct {
	next    Notifier
	breaker *safety.CircuitBreaker
}

func NewGuardedNotifier(next Notifier, breaker *safety.CircuitBreaker) *GuardedNotifier {
	if breaker == nil {
		breaker = safety.NewCircuitBreaker("notifier", safety.DefaultBreakerConfig())
	}
	return &GuardedNotifier{next: next, breaker: breaker}
}

func (g *GuardedNotifier) SendAlert(level, message string) error {
	return g.breaker.Call(func() error {
		return g.next.SendAlert(level, message)
	})
}
