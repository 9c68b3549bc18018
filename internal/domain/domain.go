package domain

// Platform identifies the streaming service an alert originated from.
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformYouTube Platform = "youtube"
)

// AlertType classifies what happened on the platform.
type AlertType string

const (
	AlertSub        AlertType = "sub"
	AlertGift       AlertType = "gift"
	AlertRedemption AlertType = "redemption"
	AlertLive       AlertType = "live"
)

// Alert is the canonical notification record. It is immutable once built:
// only the normalizers construct it, and the only consumer is the alert
// topic. There is no identity key; duplicate deliveries are acceptable.
type Alert struct {
	Platform  Platform  `json:"platform"`
	AlertType AlertType `json:"alert_type"`
	UserName  string    `json:"user_name"`
	Message   string    `json:"message"`
	Amount    string    `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Count     *uint64   `json:"count,omitempty"`
}

// OAuthResult represents a completed or failed sign-in attempt. Token and
// Error are not both populated under normal operation; Service is always set.
type OAuthResult struct {
	Token        string `json:"token"`
	Service      string `json:"service"`
	Error        string `json:"error,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// TokenGrant is the identity provider's raw token response. It is returned
// to the API caller and used to build an OAuthResult; never persisted here.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Topic names of the two broadcast conduits, used for logging and metrics.
const (
	TopicOAuthEvents = "oauth-events"
	TopicAlertEvents = "alert-events"
)

// NotificationSink delivers bridge events to the hosting application.
// Emit is fire-and-forget: there is no acknowledgment and it must not block
// the calling forwarder on a slow host.
type NotificationSink interface {
	Emit(event string, payload any)
}

// Host-facing event names carried through the NotificationSink.
const (
	EventAuthCallback = "auth-callback"
	EventAlert        = "alert"
)
