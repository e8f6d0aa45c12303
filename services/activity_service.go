package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/repository"
)

// ActivityService owns the activity feed: recording normalized records,
// broadcasting them to the stream rooms, and serving the three read views.
//
// Messaging writes records through Record/Broadcast; collaborating
// subsystems (comments, reviews, shelf changes) come in through Emit and
// SyncShelves. Records from private conversations are never produced, so
// everything stored here is fit for the global feed.
type ActivityService struct {
	db           *sql.DB
	activityRepo repository.ActivityRepository
	publisher    broker.Publisher
	logger       zerolog.Logger
}

// NewActivityService wires the activity service.
func NewActivityService(db *sql.DB, activityRepo repository.ActivityRepository, publisher broker.Publisher, logger zerolog.Logger) *ActivityService {
	return &ActivityService{
		db:           db,
		activityRepo: activityRepo,
		publisher:    publisher,
		logger:       logger.With().Str("component", "activity_service").Logger(),
	}
}

// Record inserts a record, inside the caller's transaction when q is given.
// Pair with Broadcast after the transaction commits.
func (s *ActivityService) Record(ctx context.Context, q database.TxQuerier, rec *models.ActivityRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return s.activityRepo.Insert(ctx, q, rec)
}

// Broadcast pushes a committed record to its stream rooms: the global
// stream, the target user's personal stream, and the shelves stream of every
// user shelving the record's book.
func (s *ActivityService) Broadcast(ctx context.Context, rec *models.ActivityRecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal activity record")
		return
	}

	s.publisher.Publish(broker.Event{
		Room:    broker.RoomStreamGlobal(),
		Type:    broker.EventActivityCreated,
		Payload: payload,
	})
	if rec.TargetUserID != nil && *rec.TargetUserID != "" {
		s.publisher.Publish(broker.Event{
			Room:    broker.RoomStreamPersonal(*rec.TargetUserID),
			Type:    broker.EventActivityCreated,
			Payload: payload,
		})
	}
	if rec.BookID != nil && *rec.BookID != "" {
		userIDs, err := s.activityRepo.UsersWithBook(ctx, *rec.BookID)
		if err != nil {
			s.logger.Warn().Err(err).Str("book_id", *rec.BookID).Msg("shelf fan-out lookup failed")
			return
		}
		for _, uid := range userIDs {
			s.publisher.Publish(broker.Event{
				Room:    broker.RoomStreamShelves(uid),
				Type:    broker.EventActivityCreated,
				Payload: payload,
			})
		}
	}
}

// Emit is the collaborator ingest path: validate, store, broadcast.
func (s *ActivityService) Emit(ctx context.Context, req *models.EmitActivityRequest) (*models.ActivityRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	rec := &models.ActivityRecord{
		ID:           uuid.NewString(),
		ActivityType: req.ActivityType,
		SourceType:   req.SourceType,
		SourceID:     req.SourceID,
		ActorID:      req.ActorID,
		TargetUserID: req.TargetUserID,
		BookID:       req.BookID,
		Metadata:     req.Metadata,
	}
	if err := s.activityRepo.Insert(ctx, nil, rec); err != nil {
		return nil, err
	}
	s.Broadcast(ctx, rec)
	return rec, nil
}

// Feed serves one page of a view, newest first.
func (s *ActivityService) Feed(ctx context.Context, userID string, view models.FeedView, filters models.FeedFilters, cursorToken string, limit int) (*models.FeedPage, error) {
	if limit <= 0 || limit > models.MaxFeedLimit {
		limit = models.MaxFeedLimit
	}
	cursor, err := models.DecodeFeedCursor(cursorToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}

	// One extra row decides has-more without a count query.
	var records []models.ActivityRecord
	switch view {
	case models.FeedGlobal:
		records, err = s.activityRepo.ListGlobal(ctx, cursor, limit+1)
	case models.FeedPersonal:
		records, err = s.activityRepo.ListPersonal(ctx, userID, cursor, limit+1)
	case models.FeedShelves:
		records, err = s.activityRepo.ListShelves(ctx, userID, filters, cursor, limit+1)
	default:
		return nil, fmt.Errorf("%w: unknown feed view", pkg.ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	page := &models.FeedPage{}
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1]
		page.NextCursor = models.FeedCursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	page.Records = records
	return page, nil
}

// SyncShelves replaces one user's shelf projection atomically.
func (s *ActivityService) SyncShelves(ctx context.Context, req *models.SyncShelvesRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.activityRepo.ReplaceShelves(ctx, tx, req.UserID, req.Shelves)
	})
}

// DeleteBySource hides all records of a removed source entity.
func (s *ActivityService) DeleteBySource(ctx context.Context, sourceType, sourceID string) error {
	return s.activityRepo.SoftDeleteBySource(ctx, sourceType, sourceID)
}
