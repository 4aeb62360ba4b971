package model

// Entry is a participant's reply comment as fetched at judging time.
// Entries are a snapshot and are never re-fetched within a round.
type Entry struct {
	CommentID  string
	AuthorID   string
	AuthorName string
	Content    string
	Score      int
	Wallet     string // extracted payout address, empty if none
}
