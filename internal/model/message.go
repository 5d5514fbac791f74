package model

// MessageItem is a 1:1 chat message. CreatedAt is RFC3339Nano so the sort key
// orders lexically.
type MessageItem struct {
	MessageID  string `dynamodbav:"messageId"`
	SenderID   string `dynamodbav:"senderId"`
	ReceiverID string `dynamodbav:"receiverId"`
	Text       string `dynamodbav:"text,omitempty"`
	Image      string `dynamodbav:"image,omitempty"`
	Seen       bool   `dynamodbav:"seen"`
	CreatedAt  string `dynamodbav:"createdAt"`
}
