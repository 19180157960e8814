package models

// Upload is a file attached to a response through a file-upload field.
type Upload struct {
	ID          string    `json:"id,omitempty"`
	FormID      string    `json:"formId"`
	FieldID     string    `json:"fieldId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Content     []byte    `json:"content,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// Ref is the value stored in a response answer for an uploaded file.
func (u *Upload) Ref() map[string]any {
	return map[string]any{
		"uploadId":    u.ID,
		"fileName":    u.FileName,
		"contentType": u.ContentType,
		"size":        u.Size,
	}
}
