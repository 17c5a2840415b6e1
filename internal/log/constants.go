package log

const (
	KeyAppName       = "app"
	KeyTag           = "tag"
	KeyProcess       = "process"
	KeyRequestID     = "requestId"
	KeyRequestBody   = "requestBody"
	KeyRequestHeader = "requestHeader"
	KeyRequestHost   = "host"
	KeyRequestIp     = "requesterIP"
	KeyRequestMethod = "requestMethod"
	KeyRequestURI    = "requestURI"
	KeyRequestURL    = "requestURL"
	KeyConfig        = "config"
	KeyEmail         = "email"
	KeyUserID        = "userId"
	KeyIdentity      = "identity"
	KeyRole          = "role"
	KeyItemID        = "itemId"
	KeyItemKind      = "itemKind"
	KeyQuantity      = "quantity"
	KeyStockCeiling  = "stockCeiling"
	KeyCart          = "cart"
	KeyCacheKey      = "cacheKey"
	KeyOrderID       = "orderId"
	KeyPaymentMethod = "paymentMethod"
	KeyPaymentID     = "paymentId"
	KeyCheckoutState = "checkoutState"
	KeyCourseID      = "courseId"
	KeyPetID         = "petId"
	KeyBookingID     = "bookingId"
	KeyStatus        = "status"
	KeyUpstreamPath  = "upstreamPath"
	KeyTheme         = "theme"
	KeySessionID     = "sessionId"
)
