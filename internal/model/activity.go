package model

import "time"

// Stats are the owner-only inbox counters.
//
// TotalQuestions comes from the increment-only counter on the user row, not
// from counting live question rows (answered questions are deleted, so a live
// count would shrink over time). Pending is derived: total minus answers.
type Stats struct {
	Handle         string `json:"handle"`
	TotalQuestions int64  `json:"totalQuestions"`
	TotalAnswers   int64  `json:"totalAnswers"`
	Pending        int64  `json:"pending"`
}

// Activity is everything created after a client-supplied cursor, used for
// polling-based "live" notifications. Each slice is capped to a small page.
//
// Timestamp is the server clock at query time — the client echoes it back as
// the next `since` cursor. Rows are matched with a strict createdAt > since
// comparison, so two polls with increasing cursors never both report the
// same row.
type Activity struct {
	Questions []Question      `json:"questions"`
	Answers   []Answer        `json:"answers"`
	Users     []PublicProfile `json:"users"`
	Timestamp time.Time       `json:"timestamp"`
}
