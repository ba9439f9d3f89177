package dto

// Google Calendar v3 event resources, limited to the fields the planner reads
// and writes.
type (
	GoogleEventTime struct {
		DateTime string `json:"dateTime,omitempty"`
		Date     string `json:"date,omitempty"`
		TimeZone string `json:"timeZone,omitempty"`
	}

	GoogleExtendedProperties struct {
		Private map[string]string `json:"private,omitempty"`
	}

	GoogleEvent struct {
		ID                 string                    `json:"id,omitempty"`
		Status             string                    `json:"status,omitempty"`
		Summary            string                    `json:"summary"`
		Description        string                    `json:"description,omitempty"`
		Location           string                    `json:"location,omitempty"`
		Start              GoogleEventTime           `json:"start"`
		End                GoogleEventTime           `json:"end"`
		ExtendedProperties *GoogleExtendedProperties `json:"extendedProperties,omitempty"`
	}

	GoogleEventList struct {
		Items         []GoogleEvent `json:"items"`
		NextPageToken string        `json:"nextPageToken"`
	}

	GoogleErrorResponse struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	GoogleUserInfo struct {
		Email string `json:"email"`
	}
)
