package httpx

const (
	HeaderContentType = "Content-Type"
	HeaderValueJson   = "application/json"
	HeaderRequestID   = "X-Request-Id"
	HeaderRedirectTo  = "X-Redirect-To"
)
