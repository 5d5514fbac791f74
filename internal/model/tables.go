package model

const (
	UsersTable    = "Users"
	MessagesTable = "Messages"
)

const (
	UsersByEmailIndex       = "byEmail"
	MessagesBySenderIndex   = "bySender"
	MessagesByReceiverIndex = "byReceiver"
)

type UserItem struct {
	UserID            string `dynamodbav:"userId"`
	Email             string `dynamodbav:"email"`
	FullName          string `dynamodbav:"fullName"`
	PasswordHash      string `dynamodbav:"passwordHash"`
	Bio               string `dynamodbav:"bio"`
	ProfilePic        string `dynamodbav:"profilePic,omitempty"`
	IsAccountVerified bool   `dynamodbav:"isAccountVerified"`
	VerifyOTP         string `dynamodbav:"verifyOtp,omitempty"`
	VerifyOTPExpireAt int64  `dynamodbav:"verifyOtpExpireAt,omitempty"`
	ResetOTP          string `dynamodbav:"resetOtp,omitempty"`
	ResetOTPExpireAt  int64  `dynamodbav:"resetOtpExpireAt,omitempty"`
	CreatedAt         string `dynamodbav:"createdAt"`
	UpdatedAt         string `dynamodbav:"updatedAt"`
}
