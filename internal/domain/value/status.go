package value

// BargainStatus is the lifecycle state of a bargain session. The only legal
// transitions are negotiating -> completed and negotiating -> failed; both
// terminal states are final.
type BargainStatus string

const (
	BargainNegotiating BargainStatus = "negotiating"
	BargainCompleted   BargainStatus = "completed"
	BargainFailed      BargainStatus = "failed"
)

func (s BargainStatus) String() string {
	return string(s)
}

func (s BargainStatus) IsTerminal() bool {
	return s == BargainCompleted || s == BargainFailed
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle
// step.
func (s BargainStatus) CanTransitionTo(next BargainStatus) bool {
	return s == BargainNegotiating && next.IsTerminal()
}
