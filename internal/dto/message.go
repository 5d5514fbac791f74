package dto

type SendMessageRequest struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type MessageResponse struct {
	MessageID  string `json:"messageId"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text,omitempty"`
	Image      string `json:"image,omitempty"`
	Seen       bool   `json:"seen"`
	CreatedAt  string `json:"createdAt"`
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type SidebarResponse struct {
	Users        []UserResponse `json:"users"`
	UnseenCounts map[string]int `json:"unseenMessages"`
}

type MessageEnvelope struct {
	Message MessageResponse `json:"message"`
}

type DeleteMessageResponse struct {
	MessageID string `json:"messageId"`
}
