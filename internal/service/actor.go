package service

import "strings"

// ActorDisplayName formats the name recorded on items and activity events:
// "first last", else first, else last, else a masked id. Every mutation
// entry point goes through this one function so the ledger and the item
// audit pair can never disagree on a name.
func ActorDisplayName(firstName, lastName, actorID string) string {
	first := strings.TrimSpace(firstName)
	last := strings.TrimSpace(lastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return maskedActor(actorID)
}

// maskedActor keeps the audit trail human-readable when no profile name
// exists: operators see the last 6 characters of the actor id.
func maskedActor(actorID string) string {
	if len(actorID) <= 6 {
		return "operator-" + actorID
	}
	return "operator-" + actorID[len(actorID)-6:]
}
