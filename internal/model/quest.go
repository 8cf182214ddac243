package model

import "time"

type Quest struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Reward    int       `json:"reward"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletionStatus is the closed set of quest completion states.
type CompletionStatus string

const (
	CompletionPending  CompletionStatus = "PENDING"
	CompletionApproved CompletionStatus = "APPROVED"
	CompletionRejected CompletionStatus = "REJECTED"
)

// QuestCompletion is a user's claim against a quest. APPROVED is terminal;
// a REJECTED completion is reused on resubmission rather than duplicated, so
// there is at most one row per (quest, user) pair.
type QuestCompletion struct {
	ID          int64            `json:"id"`
	QuestID     int64            `json:"quest_id"`
	UserID      int64            `json:"user_id"`
	Status      CompletionStatus `json:"status"`
	SubmittedAt time.Time        `json:"submitted_at"`
	ReviewedAt  *time.Time       `json:"reviewed_at"`
	ReviewedBy  *int64           `json:"reviewed_by"`
}

// QuestWithStatus is a quest annotated with the requesting user's own
// completion status (empty if never submitted).
type QuestWithStatus struct {
	Quest
	UserStatus CompletionStatus `json:"user_status,omitempty"`
}

// CompletionDetail joins a pending completion with quest and submitter info
// for the admin review queue.
type CompletionDetail struct {
	QuestCompletion
	QuestTitle  string `json:"quest_title"`
	QuestReward int    `json:"quest_reward"`
	UserName    string `json:"user_name"`
	UserEmoji   string `json:"user_emoji"`
}
