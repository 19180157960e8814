package models

const AnonymousUser = "anonymous"

type DraftMetadata struct {
	SavedAt   Timestamp `json:"savedAt"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// Draft is in-progress fill state for one (form, respondent) pair.
type Draft struct {
	ID        string         `json:"id"`
	FormID    string         `json:"formId"`
	UserID    string         `json:"userId"`
	Data      map[string]any `json:"data"`
	Metadata  DraftMetadata  `json:"metadata"`
	UpdatedAt Timestamp      `json:"updatedAt"`
}

// DraftID builds the composite draft key. An empty userID maps to
// AnonymousUser.
func DraftID(formID, userID string) string {
	if userID == "" {
		userID = AnonymousUser
	}
	return formID + "_" + userID
}
