package domain

import "time"

// MatchStatus enumerates lifecycle states for a directed interest edge.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "PENDING"
	MatchStatusMatched  MatchStatus = "MATCHED"
	MatchStatusRejected MatchStatus = "REJECTED"
	// MatchStatusBlocked is terminal and reserved for a moderation path;
	// nothing in the current flows sets it.
	MatchStatusBlocked MatchStatus = "BLOCKED"
)

// Match is a directed interest edge requester → target. A mutual
// relationship is represented by two MATCHED edges, one per direction.
type Match struct {
	ID          string
	RequesterID string
	TargetID    string
	Status      MatchStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RelationshipStatus is the effective state between two users, derived from
// both directed edges.
type RelationshipStatus string

const (
	RelationshipMatched         RelationshipStatus = "matched"
	RelationshipSentPending     RelationshipStatus = "sent_pending"
	RelationshipReceivedPending RelationshipStatus = "received_pending"
	RelationshipNone            RelationshipStatus = "none"
)
