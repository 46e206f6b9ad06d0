package store

import "time"

// Comment statuses. A comment is publicly visible only while approved.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether status is one of the known moderation states.
func ValidStatus(status string) bool {
	return status == StatusPending || status == StatusApproved || status == StatusRejected
}

// InitialStatus implements the moderation workflow's creation rule:
// privileged submitters skip the pending queue.
func InitialStatus(privileged bool) string {
	if privileged {
		return StatusApproved
	}
	return StatusPending
}

// Comment is a single comment row. ParentID is nil for root comments and is
// deliberately not backed by a foreign key: the relation is self-referencing
// and reconstruction must tolerate cycles and dangling links.
//
// EditToken is the per-comment ownership secret. It is assigned once at
// creation and must never appear in a read or listing payload.
type Comment struct {
	ID                 string
	LegacyID           int64
	PageID             string
	ParentID           *string
	Author             string
	Body               string
	OriginAddress      string
	EditToken          string
	Status             string
	IsPrivilegedAuthor bool
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

// Page is the minimal projection of a wiki page the comment engine needs:
// existence and the tags handed to the ban-check collaborator.
type Page struct {
	ID        string
	Title     string
	Tags      []string
	CreatedAt time.Time
}

// Staff is a moderator or administrator account.
type Staff struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
