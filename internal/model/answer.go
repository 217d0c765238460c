package model

import "time"

// Answer is the public, permanent record of a question plus its response.
//
// QuestionText is a frozen copy made at answer time, not a live join — the
// originating Question row is deleted in the same transaction that creates
// the Answer, so QuestionID is a historical reference only (deliberately not
// a foreign key). Authorship (UserID) is immutable; AnswerText may be edited
// by the owner, which bumps UpdatedAt.
type Answer struct {
	ID           string    `json:"id"           db:"id"`
	QuestionID   string    `json:"questionId"   db:"question_id"`
	UserID       string    `json:"userId"       db:"user_id"`
	QuestionText string    `json:"questionText" db:"question_text"`
	AnswerText   string    `json:"answerText"   db:"answer_text"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// AnswerPage is one page of a handle's public answers.
type AnswerPage struct {
	Answers []Answer `json:"answers"`
	Total   int64    `json:"total"`
	Page    int      `json:"page"`
	Pages   int      `json:"pages"`
}
