package domain

// Button is an inline keyboard button carrying an opaque callback payload
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, one slice per row
type Keyboard struct {
	Rows [][]Button
}

// Messenger is the outbound side of the chat platform
type Messenger interface {
	// SendText sends a Markdown message and returns its message ID
	SendText(chatID int64, text string, keyboard *Keyboard) (int, error)

	// EditText replaces the text (and keyboard) of an existing message
	EditText(chatID int64, messageID int, text string, keyboard *Keyboard) error

	// SendVideo uploads a local file as a streamable video
	SendVideo(chatID int64, path, caption string) error

	// AnswerCallback acknowledges a button press
	AnswerCallback(callbackID, text string) error
}
