package entity

// Update is the subset of the Telegram Bot API update payload the webhook
// cares about.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Chat identifies the conversation a message arrived in.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the sending telegram account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ChatID returns the conversation id, or 0 when the update has no message.
func (u Update) ChatID() int64 {
	if u.Message == nil {
		return 0
	}

	return u.Message.Chat.ID
}

// Text returns the message text, or empty when the update has no message.
func (u Update) Text() string {
	if u.Message == nil {
		return ""
	}

	return u.Message.Text
}
