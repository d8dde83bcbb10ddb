// Package queue defines message payloads exchanged over the message broker.
package queue

// MemberInvitedEvent is published when a user is invited to a list
// (or their role is changed by a repeated invite). It carries enough
// context for downstream consumers to notify the invitee or feed an
// activity trail without querying the primary database.
type MemberInvitedEvent struct {
	ListID      uint64 `json:"list_id"`
	ListName    string `json:"list_name"`
	ActorID     uint64 `json:"actor_id"`
	ActorEmail  string `json:"actor_email"`
	MemberID    uint64 `json:"member_id"`
	MemberEmail string `json:"member_email"`
	Role        string `json:"role"`
	InvitedAt   string `json:"invited_at"`
}
