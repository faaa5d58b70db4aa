package domain

// PostMessageCommand carries a raw message creation request.
// Field validation is enforced by the Processor before a Message is built.
// The session identifier cannot contain ':' because it is embedded in the
// storage key (see repositories.MessageRepository).
type PostMessageCommand struct {
	SessionID string `validate:"required,max=128,excludesall=0x3A"`
	Sender    string `validate:"required,max=128"`
	Content   string
}

// GetMessagesCommand selects a page of a session's history.
// A non-positive Limit falls back to the repository default,
// a negative Offset is treated as zero. Empty Sender means no filter.
type GetMessagesCommand struct {
	SessionID string
	Limit     int
	Offset    int
	Sender    string
}
