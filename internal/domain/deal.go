package domain

import "time"

// DealStatus enumerates lifecycle states for a deal.
type DealStatus string

const (
	DealStatusPending    DealStatus = "PENDING"
	DealStatusAccepted   DealStatus = "ACCEPTED"
	DealStatusInProgress DealStatus = "IN_PROGRESS"
	DealStatusCompleted  DealStatus = "COMPLETED"
	DealStatusCancelled  DealStatus = "CANCELLED"
)

// DealAction is an explicit actor-initiated transition command.
type DealAction string

const (
	DealActionAccept   DealAction = "accept"
	DealActionStart    DealAction = "start"
	DealActionComplete DealAction = "complete"
	DealActionCancel   DealAction = "cancel"
)

// Deal is a scoped collaboration owned by a mutual match. Client and
// freelancer are fixed at creation time from the match's two parties.
type Deal struct {
	ID           string
	MatchID      string
	ClientID     string
	FreelancerID string
	Title        string
	Description  string
	Deadline     *time.Time
	Status       DealStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// dealTransitions maps each action to its required source and resulting
// status. Progression is strict: no skipping, no transition out of COMPLETED
// or CANCELLED.
var dealTransitions = map[DealAction]struct {
	From []DealStatus
	To   DealStatus
}{
	DealActionAccept:   {From: []DealStatus{DealStatusPending}, To: DealStatusAccepted},
	DealActionStart:    {From: []DealStatus{DealStatusAccepted}, To: DealStatusInProgress},
	DealActionComplete: {From: []DealStatus{DealStatusInProgress}, To: DealStatusCompleted},
	DealActionCancel: {
		From: []DealStatus{DealStatusPending, DealStatusAccepted, DealStatusInProgress},
		To:   DealStatusCancelled,
	},
}

// NextStatus returns the target status for action applied to current, and
// whether the transition is allowed.
func NextStatus(current DealStatus, action DealAction) (DealStatus, bool) {
	rule, ok := dealTransitions[action]
	if !ok {
		return "", false
	}
	for _, from := range rule.From {
		if from == current {
			return rule.To, true
		}
	}
	return "", false
}

// Terminal reports whether no further transitions are defined from status.
func (s DealStatus) Terminal() bool {
	return s == DealStatusCompleted || s == DealStatusCancelled
}
