package model

import "time"

// Question is one anonymous inbound message addressed to a user.
//
// A Question row existing IS the pending state — there is no status flag.
// Answering it deletes the row (inside the same transaction that creates the
// Answer), and discarding it deletes the row with no Answer. Either way the
// row is gone, which is what makes the two terminal transitions mutually
// exclusive.
//
// SourceIP exists only for rate-limit accounting. It is never serialized
// (json:"-") and never shown to the inbox owner — anonymity is the product.
type Question struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Text      string    `json:"text"      db:"text"`
	SourceIP  string    `json:"-"         db:"source_ip"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
