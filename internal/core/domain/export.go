package domain

// Export record types mirror the JSON shape of chat-export files. Files are
// recognised by their required key fields (uuid plus chat_messages or
// chat_conversations), not by filename, so renamed exports still ingest.

// ExportAttachment is a file attached to a message, with its extracted text.
type ExportAttachment struct {
	FileName         string `json:"file_name"`
	FileType         string `json:"file_type"`
	FileSize         int64  `json:"file_size"`
	ExtractedContent string `json:"extracted_content"`
}

// ExportMessage is a single message within an exported conversation.
type ExportMessage struct {
	UUID        string             `json:"uuid"`
	Text        string             `json:"text"`
	Sender      string             `json:"sender"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
	Attachments []ExportAttachment `json:"attachments"`
}

// ExportConversation is one conversation record from conversations.json.
type ExportConversation struct {
	UUID     string          `json:"uuid"`
	Name     string          `json:"name"`
	Messages []ExportMessage `json:"chat_messages"`
}

// ExportProject is one project record from projects.json. Projects nest
// their own conversations.
type ExportProject struct {
	UUID          string               `json:"uuid"`
	Name          string               `json:"name"`
	Conversations []ExportConversation `json:"chat_conversations"`
}
