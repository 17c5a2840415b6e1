package request

type ChatMessage struct {
	Message string `validate:"required" json:"message"`
}
