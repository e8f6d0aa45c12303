package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/repository"
)

// ReadStateService advances read cursors and serves unread counts.
//
// MarkRead is monotonic by construction: the upsert only moves the cursor
// forward, so a delayed or duplicated mark from a second device cannot
// resurrect unread state. The unread counter is recomputed exactly for the
// one thread, in the same transaction.
type ReadStateService struct {
	db        *sql.DB
	readRepo  repository.ReadStateRepository
	guard     *ThreadGuard
	publisher broker.Publisher
	logger    zerolog.Logger
}

// NewReadStateService wires the read-state service.
func NewReadStateService(db *sql.DB, readRepo repository.ReadStateRepository, guard *ThreadGuard, publisher broker.Publisher, logger zerolog.Logger) *ReadStateService {
	return &ReadStateService{
		db:        db,
		readRepo:  readRepo,
		guard:     guard,
		publisher: publisher,
		logger:    logger.With().Str("component", "read_state_service").Logger(),
	}
}

// MarkRead moves the caller's cursor up to uptoSeq, clamped to the thread
// tip. Stale marks are accepted and ignored.
func (s *ReadStateService) MarkRead(ctx context.Context, userID, threadID string, req *models.MarkReadRequest) (*models.ReadCursor, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	tc, err := s.guard.Check(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}

	upto := req.UptoSeq
	if upto > tc.Thread.LastSeq {
		upto = tc.Thread.LastSeq
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.readRepo.MarkRead(ctx, tx, threadID, userID, upto); err != nil {
			return err
		}
		return s.readRepo.RecomputeUnread(ctx, tx, threadID, userID)
	})
	if err != nil {
		return nil, err
	}

	cursor, err := s.readRepo.GetCursor(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}

	// Other devices of the same user sync their badges off this.
	payload, merr := json.Marshal(cursor)
	if merr == nil {
		s.publisher.Publish(broker.Event{
			Room:    broker.RoomUser(userID),
			Type:    broker.EventReadMarked,
			Payload: payload,
		})
	}
	return cursor, nil
}

// GetCursor returns the caller's cursor for one thread; a zero cursor when
// nothing was ever read.
func (s *ReadStateService) GetCursor(ctx context.Context, userID, threadID string) (*models.ReadCursor, error) {
	if _, err := s.guard.Check(ctx, userID, threadID); err != nil {
		return nil, err
	}
	return s.readRepo.GetCursor(ctx, threadID, userID)
}

// ListUnread returns per-thread unread counts for the sidebar. Served from
// the maintained counters: O(participating threads), never a ledger scan.
func (s *ReadStateService) ListUnread(ctx context.Context, userID string) ([]models.UnreadInfo, error) {
	return s.readRepo.ListUnread(ctx, userID)
}
