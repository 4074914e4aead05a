package monitor

// Baseline is the last observed message count.
type Baseline struct {
	Count int
	First bool
}

func NewBaseline() Baseline {
	return Baseline{First: true}
}

// Evaluate compares a fresh count against the prior baseline. The first
// observation only seeds the baseline. Deletions followed by arrivals that
// do not exceed the previous count go unnoticed.
func Evaluate(newCount int, prior Baseline) (bool, Baseline) {
	next := Baseline{Count: newCount}
	if prior.First {
		return false, next
	}
	return newCount > prior.Count, next
}
