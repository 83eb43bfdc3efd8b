package model

import "time"

// ArchiveLink access levels
const (
	AccessLevelPublic       = "public"
	AccessLevelEventMembers = "event_members"
	AccessLevelManagement   = "management"
	AccessLevelAdmin        = "admin"
)

// ArchiveLink is an archived document reference owned by an event
type ArchiveLink struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	Title       string    `json:"title"`
	DriveURL    string    `json:"drive_url"`
	Description *string   `json:"description,omitempty"`
	FileType    string    `json:"file_type"`
	AccessLevel string    `json:"access_level"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// Clone returns a copy of the link
func (a *ArchiveLink) Clone() *ArchiveLink {
	if a == nil {
		return nil
	}
	c := *a
	if a.Description != nil {
		d := *a.Description
		c.Description = &d
	}
	return &c
}

// ArchiveLink file types
const (
	FileTypeDocument     = "document"
	FileTypeSpreadsheet  = "spreadsheet"
	FileTypePresentation = "presentation"
	FileTypeImage        = "image"
	FileTypeVideo        = "video"
	FileTypeAudio        = "audio"
	FileTypeOther        = "other"
)

// ValidFileType reports whether t is a known file type
func ValidFileType(t string) bool {
	switch t {
	case FileTypeDocument, FileTypeSpreadsheet, FileTypePresentation,
		FileTypeImage, FileTypeVideo, FileTypeAudio, FileTypeOther:
		return true
	}
	return false
}

// ValidAccessLevel reports whether level is a known access level
func ValidAccessLevel(level string) bool {
	switch level {
	case AccessLevelPublic, AccessLevelEventMembers, AccessLevelManagement, AccessLevelAdmin:
		return true
	}
	return false
}

// CreateArchiveLinkRequest represents the request to archive a document for an event
type CreateArchiveLinkRequest struct {
	Title       string  `json:"title"`
	DriveURL    string  `json:"drive_url"`
	Description *string `json:"description,omitempty"`
	FileType    string  `json:"file_type,omitempty"`
	AccessLevel string  `json:"access_level,omitempty"`
}
