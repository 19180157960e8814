package models

type ResponseMetadata struct {
	RespondentName  string `json:"respondentName,omitempty"`
	RespondentEmail string `json:"respondentEmail,omitempty"`
	UserID          string `json:"userId,omitempty"`
	UserAgent       string `json:"userAgent,omitempty"`
}

// Response is one respondent's submitted answers, keyed by field id.
type Response struct {
	ID          string           `json:"id,omitempty"`
	FormID      string           `json:"formId"`
	Answers     map[string]any   `json:"answers"`
	Metadata    ResponseMetadata `json:"metadata"`
	SubmittedAt Timestamp        `json:"submittedAt"`
}
