package repository

import (
	"context"
	"errors"
	"time"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/model"
)

// ArchiveLinkRepository handles archive link data access
type ArchiveLinkRepository struct {
	db database.Querier
}

// NewArchiveLinkRepository creates a new archive link repository
func NewArchiveLinkRepository(db database.Querier) *ArchiveLinkRepository {
	return &ArchiveLinkRepository{db: db}
}

// Create creates a new archive link. Inside a transaction the create is
// buffered until Commit.
func (r *ArchiveLinkRepository) Create(ctx context.Context, link *model.ArchiveLink) error {
	if link.AccessLevel == "" {
		link.AccessLevel = model.AccessLevelEventMembers
	}

	query := `
		CREATE type::record($link_id) CONTENT {
			event_id: $event_id,
			title: $title,
			drive_url: $drive_url,
			description: IF $description != NONE THEN $description ELSE NONE END,
			file_type: $file_type,
			access_level: $access_level,
			created_on: $now,
			updated_on: $now
		}
	`
	id := newRecordID("archive_link")
	now := time.Now().UTC()
	vars := map[string]interface{}{
		"link_id":      id,
		"event_id":     link.EventID,
		"title":        link.Title,
		"drive_url":    link.DriveURL,
		"description":  ptrToNone(link.Description),
		"file_type":    link.FileType,
		"access_level": link.AccessLevel,
		"now":          now,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return err
	}

	link.ID = id
	link.CreatedOn = now
	link.UpdatedOn = now
	return nil
}

// Get retrieves an archive link by ID
func (r *ArchiveLinkRepository) Get(ctx context.Context, linkID string) (*model.ArchiveLink, error) {
	query := `SELECT * FROM type::record($link_id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"link_id": linkID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	data, _ := result.(map[string]interface{})
	return parseArchiveLinkResult(data)
}

// Delete deletes an archive link
func (r *ArchiveLinkRepository) Delete(ctx context.Context, linkID string) error {
	query := `DELETE type::record($link_id)`
	return r.db.Execute(ctx, query, map[string]interface{}{"link_id": linkID})
}

// List returns every archive link, newest first
func (r *ArchiveLinkRepository) List(ctx context.Context) ([]*model.ArchiveLink, error) {
	query := `SELECT * FROM archive_link ORDER BY created_on DESC`
	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return parseArchiveLinksResult(result), nil
}

// ListByEvent returns the archive links of an event
func (r *ArchiveLinkRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.ArchiveLink, error) {
	query := `SELECT * FROM archive_link WHERE event_id = $event_id ORDER BY created_on ASC`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"event_id": eventID})
	if err != nil {
		return nil, err
	}
	return parseArchiveLinksResult(result), nil
}

// CountByEvent counts archive links owned by eventID
func (r *ArchiveLinkRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	query := `SELECT count() AS count FROM archive_link WHERE event_id = $event_id GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"event_id": eventID})
}

// DeleteByEvent deletes every archive link owned by eventID
func (r *ArchiveLinkRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	query := `DELETE archive_link WHERE event_id = $event_id`
	return r.db.Execute(ctx, query, map[string]interface{}{"event_id": eventID})
}

func parseArchiveLinksResult(result []interface{}) []*model.ArchiveLink {
	links := make([]*model.ArchiveLink, 0)
	for _, data := range extractQueryResults(result) {
		link, err := parseArchiveLinkResult(data)
		if err != nil {
			continue
		}
		links = append(links, link)
	}
	return links
}

func parseArchiveLinkResult(data map[string]interface{}) (*model.ArchiveLink, error) {
	if data == nil {
		return nil, errors.New("unexpected result format")
	}
	link := &model.ArchiveLink{
		ID:          convertSurrealID(data["id"]),
		EventID:     convertSurrealID(data["event_id"]),
		Title:       getString(data, "title"),
		DriveURL:    getString(data, "drive_url"),
		Description: getStringPtr(data, "description"),
		FileType:    getString(data, "file_type"),
		AccessLevel: getString(data, "access_level"),
	}
	if t := getTime(data, "created_on"); t != nil {
		link.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		link.UpdatedOn = *t
	}
	return link, nil
}
