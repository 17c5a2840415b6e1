package response

type ChatReply struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}
