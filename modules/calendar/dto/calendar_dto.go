package dto

// Provider constants
const (
	ProviderGoogle = "google"
)

// CalendarConnectionResponse represents a calendar connection
type CalendarConnectionResponse struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	CalendarEmail string `json:"calendar_email"`
	IsActive      bool   `json:"is_active"`
	ConnectedAt   string `json:"connected_at"`
}

// CalendarConnectionListResponse represents list of connections
type CalendarConnectionListResponse struct {
	Connections []CalendarConnectionResponse `json:"connections"`
}

// OAuthURLResponse response with OAuth URL
type OAuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}
