package checkout

type Step int

const (
	StepShipping Step = iota + 1
	StepPayment
	StepReview
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepComplete:
		return "complete"
	}
	return "unknown"
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CanTransitionTo lists the edges of the checkout flow: next, back and submit.
func CanTransitionTo(from, to Step) bool {
	switch from {
	case StepShipping:
		return to == StepPayment
	case StepPayment:
		return to == StepReview || to == StepShipping
	case StepReview:
		return to == StepComplete || to == StepPayment
	}
	return false
}
