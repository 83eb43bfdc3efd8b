package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/repository"
)

// ArchiveService handles the archived document links of events
type ArchiveService struct {
	gateway     repository.Gateway
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewArchiveService creates a new archive service
func NewArchiveService(gateway repository.Gateway, coordinator *Coordinator, logger *slog.Logger) *ArchiveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveService{
		gateway:     gateway,
		coordinator: coordinator,
		logger:      logger,
	}
}

// CreateLink archives a document link for eventID. The event is checked in
// the same atomic unit as the write.
func (s *ArchiveService) CreateLink(ctx context.Context, eventID string, req *model.CreateArchiveLinkRequest, createdBy string) (*model.ArchiveLink, error) {
	link, err := buildLink(eventID, req)
	if err != nil {
		return nil, err
	}

	_, err = s.coordinator.RunAtomic(ctx, "create_archive_link", func(ctx context.Context, cols repository.Collections) error {
		if _, err := loadEvent(ctx, cols, eventID); err != nil {
			return err
		}
		return cols.ArchiveLinks().Create(ctx, link)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("archive link created",
		slog.String("link_id", link.ID),
		slog.String("event_id", eventID),
		slog.String("created_by", createdBy),
	)
	return link, nil
}

// ListEventLinks returns the archive links of an existing event
func (s *ArchiveService) ListEventLinks(ctx context.Context, eventID string) ([]*model.ArchiveLink, error) {
	if _, err := loadEvent(ctx, s.gateway, eventID); err != nil {
		return nil, err
	}
	return s.gateway.ArchiveLinks().ListByEvent(ctx, eventID)
}

// ListAllLinks returns every archive link across events
func (s *ArchiveService) ListAllLinks(ctx context.Context) ([]*model.ArchiveLink, error) {
	return s.gateway.ArchiveLinks().List(ctx)
}

// DeleteLink removes an archive link
func (s *ArchiveService) DeleteLink(ctx context.Context, linkID, deletedBy string) error {
	link, err := s.gateway.ArchiveLinks().Get(ctx, linkID)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrArchiveLinkNotFound
	}
	if err := s.gateway.ArchiveLinks().Delete(ctx, linkID); err != nil {
		return err
	}

	s.logger.Info("archive link deleted",
		slog.String("link_id", linkID),
		slog.String("event_id", link.EventID),
		slog.String("deleted_by", deletedBy),
	)
	return nil
}

func buildLink(eventID string, req *model.CreateArchiveLinkRequest) (*model.ArchiveLink, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}
	if len(title) > model.MaxTaskTitleLength {
		return nil, invalid("title", "title cannot exceed %d characters", model.MaxTaskTitleLength)
	}

	raw := strings.TrimSpace(req.DriveURL)
	u, err := url.Parse(raw)
	if raw == "" || err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, invalid("drive_url", "a valid http(s) URL is required")
	}

	fileType := req.FileType
	if fileType == "" {
		fileType = model.FileTypeOther
	}
	if !model.ValidFileType(fileType) {
		return nil, invalid("file_type", "invalid file type %q", fileType)
	}
	access := req.AccessLevel
	if access == "" {
		access = model.AccessLevelEventMembers
	}
	if !model.ValidAccessLevel(access) {
		return nil, invalid("access_level", "invalid access level %q", access)
	}

	return &model.ArchiveLink{
		EventID:     eventID,
		Title:       title,
		DriveURL:    raw,
		Description: req.Description,
		FileType:    fileType,
		AccessLevel: access,
	}, nil
}
