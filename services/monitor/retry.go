package monitor

import (
	er "github.com/customeros/mailchecker/internal/errors"
)

type Decision int

const (
	DecisionContinue Decision = iota
	DecisionGiveUp
)

func (d Decision) String() string {
	if d == DecisionGiveUp {
		return "give up"
	}
	return "continue"
}

// RetryPolicy bounds reconnects for the whole run. The attempt counter is
// never reset, so a flapping server exhausts it eventually.
type RetryPolicy struct {
	maxRetry int
	attempts int
}

func NewRetryPolicy(maxRetry int) *RetryPolicy {
	return &RetryPolicy{maxRetry: maxRetry}
}

func (p *RetryPolicy) Classify(err error) er.Kind {
	return er.KindOf(err)
}

// OnFailure records a transient failure.
func (p *RetryPolicy) OnFailure() Decision {
	p.attempts++
	if p.attempts > p.maxRetry {
		return DecisionGiveUp
	}
	return DecisionContinue
}

func (p *RetryPolicy) Attempts() int {
	return p.attempts
}

func (p *RetryPolicy) MaxRetry() int {
	return p.maxRetry
}
