package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/repository"
)

// DefaultMessagePageSize bounds thread history pages.
const DefaultMessagePageSize = 50

// MessageService owns the ledger: append, edit, soft-delete, history.
//
// Append is the hot path. Everything that must be atomic (sequence
// allocation, the insert, attachments, the thread tip, unread bumps and the
// activity record) happens in one transaction; broker fan-out happens after
// commit and is allowed to fail.
type MessageService struct {
	db           *sql.DB
	messageRepo  repository.MessageRepository
	threadRepo   repository.ThreadRepository
	reactionRepo repository.ReactionRepository
	readRepo     repository.ReadStateRepository
	guard        *ThreadGuard
	activity     *ActivityService
	publisher    broker.Publisher
	logger       zerolog.Logger
}

// NewMessageService wires the message service.
func NewMessageService(db *sql.DB, messageRepo repository.MessageRepository, threadRepo repository.ThreadRepository, reactionRepo repository.ReactionRepository, readRepo repository.ReadStateRepository, guard *ThreadGuard, activity *ActivityService, publisher broker.Publisher, logger zerolog.Logger) *MessageService {
	return &MessageService{
		db:           db,
		messageRepo:  messageRepo,
		threadRepo:   threadRepo,
		reactionRepo: reactionRepo,
		readRepo:     readRepo,
		guard:        guard,
		activity:     activity,
		publisher:    publisher,
		logger:       logger.With().Str("component", "message_service").Logger(),
	}
}

// Send appends a message to a thread.
func (s *MessageService) Send(ctx context.Context, userID, threadID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}

	tc, err := s.guard.Check(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}
	if tc.Channel != nil && tc.Channel.Archived {
		return nil, fmt.Errorf("%w: channel is archived", pkg.ErrPreconditionFailed)
	}

	// Idempotent resend: if this nonce already landed, hand the original back.
	if req.ClientNonce != nil && *req.ClientNonce != "" {
		if existing, err := s.messageRepo.GetByClientNonce(ctx, nil, threadID, userID, *req.ClientNonce); err == nil {
			return s.hydrateOne(ctx, userID, existing)
		} else if !errors.Is(err, pkg.ErrNotFound) {
			return nil, err
		}
	}

	quoted, excerpt, err := s.resolveQuote(ctx, threadID, req)
	if err != nil {
		return nil, err
	}

	recipients, err := s.guard.Recipients(ctx, tc, userID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:              uuid.NewString(),
		ThreadID:        threadID,
		AuthorID:        userID,
		Content:         &req.Content,
		QuotedMessageID: req.QuotedMessageID,
		QuotedExcerpt:   excerpt,
	}

	var activityRecs []*models.ActivityRecord
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		seq, err := s.threadRepo.AllocateSeq(ctx, tx, threadID)
		if err != nil {
			return err
		}
		msg.Seq = seq

		if err := s.messageRepo.Insert(ctx, tx, msg, req.ClientNonce); err != nil {
			return err
		}
		if len(req.Attachments) > 0 {
			attachments := make([]models.Attachment, len(req.Attachments))
			for i, ref := range req.Attachments {
				attachments[i] = models.Attachment{
					ID:           uuid.NewString(),
					MessageID:    msg.ID,
					BlobRef:      ref.BlobRef,
					ThumbnailRef: ref.ThumbnailRef,
					Position:     i,
				}
			}
			if err := s.messageRepo.AddAttachments(ctx, tx, attachments); err != nil {
				return err
			}
		}
		if err := s.threadRepo.SetLastMessage(ctx, tx, threadID, msg.ID); err != nil {
			return err
		}
		if err := s.readRepo.IncrementUnread(ctx, tx, threadID, recipients); err != nil {
			return err
		}

		activityRecs = s.buildActivityRecords(tc, msg, quoted)
		for _, rec := range activityRecs {
			if err := s.activity.Record(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// A racing resend may have taken the nonce slot first.
		if req.ClientNonce != nil && *req.ClientNonce != "" {
			if existing, nerr := s.messageRepo.GetByClientNonce(ctx, nil, threadID, userID, *req.ClientNonce); nerr == nil {
				return s.hydrateOne(ctx, userID, existing)
			}
		}
		return nil, err
	}

	full, err := s.hydrateOne(ctx, userID, msg)
	if err != nil {
		return nil, err
	}

	s.broadcastMessage(broker.EventMessageCreated, full)
	if tc.Conversation != nil {
		// The peer may not have the thread open; the user room carries the
		// notification for the sidebar.
		s.publishToUser(tc.Conversation.OtherParticipant(userID), broker.EventMessageCreated, full)
	}
	for _, rec := range activityRecs {
		s.activity.Broadcast(ctx, rec)
	}

	s.logger.Debug().Str("thread_id", threadID).Int64("seq", msg.Seq).Msg("message appended")
	return full, nil
}

// resolveQuote enforces quoting rules: quoted message must exist in the same
// thread and must not itself be a quote (depth one). The excerpt is capped;
// when absent it is derived from the quoted content.
func (s *MessageService) resolveQuote(ctx context.Context, threadID string, req *models.SendMessageRequest) (*models.Message, *string, error) {
	if req.QuotedMessageID == nil || *req.QuotedMessageID == "" {
		return nil, nil, nil
	}
	quoted, err := s.messageRepo.GetByID(ctx, *req.QuotedMessageID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: quoted message not found", pkg.ErrValidation)
		}
		return nil, nil, err
	}
	if quoted.ThreadID != threadID {
		return nil, nil, fmt.Errorf("%w: quoted message belongs to another thread", pkg.ErrValidation)
	}
	if quoted.IsQuote() {
		return nil, nil, fmt.Errorf("%w: cannot quote a quote", pkg.ErrValidation)
	}

	excerpt := req.QuotedExcerpt
	if excerpt == nil {
		derived := truncateRunes(quoted.Display(), models.MaxQuotedExcerpt)
		excerpt = &derived
	}
	return quoted, excerpt, nil
}

// buildActivityRecords derives feed records for one append. Private
// conversations produce none; channel messages feed the global stream, and a
// quote additionally notifies the quoted author.
func (s *MessageService) buildActivityRecords(tc *ThreadContext, msg *models.Message, quoted *models.Message) []*models.ActivityRecord {
	if tc.Channel == nil {
		return nil
	}
	meta, _ := json.Marshal(map[string]string{
		"thread_id": msg.ThreadID,
		"group_id":  tc.Channel.GroupID,
	})

	recs := []*models.ActivityRecord{{
		ID:           uuid.NewString(),
		ActivityType: models.ActivityMessageSent,
		SourceType:   "message",
		SourceID:     msg.ID,
		ActorID:      msg.AuthorID,
		Metadata:     meta,
	}}
	if quoted != nil && quoted.AuthorID != msg.AuthorID {
		target := quoted.AuthorID
		recs = append(recs, &models.ActivityRecord{
			ID:           uuid.NewString(),
			ActivityType: models.ActivityReplyReceived,
			SourceType:   "message",
			SourceID:     msg.ID,
			ActorID:      msg.AuthorID,
			TargetUserID: &target,
			Metadata:     meta,
		})
	}
	return recs
}

// Get returns one message to a thread participant.
func (s *MessageService) Get(ctx context.Context, userID, messageID string) (*models.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Check(ctx, userID, msg.ThreadID); err != nil {
		return nil, err
	}
	return s.hydrateOne(ctx, userID, msg)
}

// List pages thread history by seq, oldest first within the page. beforeSeq
// zero starts from the tip.
func (s *MessageService) List(ctx context.Context, userID, threadID string, beforeSeq int64, limit int) (*models.MessagePage, error) {
	if _, err := s.guard.Check(ctx, userID, threadID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultMessagePageSize*2 {
		limit = DefaultMessagePageSize
	}

	messages, err := s.messageRepo.ListByThread(ctx, threadID, beforeSeq, limit+1)
	if err != nil {
		return nil, err
	}
	hasMore := false
	if len(messages) > limit {
		hasMore = true
		messages = messages[len(messages)-limit:]
	}
	hydrated, err := s.hydrate(ctx, userID, messages)
	if err != nil {
		return nil, err
	}
	return &models.MessagePage{Messages: hydrated, HasMore: hasMore}, nil
}

// Edit replaces a message's content. The author may always edit; in channels
// a moderator or the owner may edit anyone's message, which stamps EditedBy.
func (s *MessageService) Edit(ctx context.Context, userID, messageID string, req *models.EditMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	tc, err := s.guard.Check(ctx, userID, msg.ThreadID)
	if err != nil {
		return nil, err
	}
	if msg.DeletedAt != nil {
		return nil, fmt.Errorf("%w: message is deleted", pkg.ErrPreconditionFailed)
	}

	var editedBy *string
	if msg.AuthorID != userID {
		if !s.canModerate(tc) {
			return nil, fmt.Errorf("%w: not your message", pkg.ErrForbidden)
		}
		editedBy = &userID
	}

	if err := s.messageRepo.UpdateContent(ctx, messageID, req.Content, editedBy); err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	s.broadcastMessage(broker.EventMessageEdited, updated)
	return updated, nil
}

// Delete soft-deletes: the row and its seq survive, content becomes the
// placeholder, and the message's feed records disappear.
func (s *MessageService) Delete(ctx context.Context, userID, messageID string) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	tc, err := s.guard.Check(ctx, userID, msg.ThreadID)
	if err != nil {
		return err
	}
	if msg.AuthorID != userID && !s.canModerate(tc) {
		return fmt.Errorf("%w: not your message", pkg.ErrForbidden)
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID, userID); err != nil {
		return err
	}
	if err := s.activity.DeleteBySource(ctx, "message", messageID); err != nil {
		s.logger.Warn().Err(err).Str("message_id", messageID).Msg("activity cleanup failed")
	}

	payload, _ := json.Marshal(map[string]any{
		"id":        messageID,
		"thread_id": msg.ThreadID,
		"seq":       msg.Seq,
	})
	s.publisher.Publish(broker.Event{
		Room:    broker.RoomThread(msg.ThreadID),
		Type:    broker.EventMessageDeleted,
		Payload: payload,
	})
	return nil
}

// canModerate: moderator override exists in channels only; conversations
// have no moderators.
func (s *MessageService) canModerate(tc *ThreadContext) bool {
	return tc.Membership != nil && tc.Membership.Role.AtLeast(models.RoleModerator)
}

// hydrate attaches attachments, reaction aggregates and quote previews, and
// applies the deletion placeholder.
func (s *MessageService) hydrate(ctx context.Context, viewerID string, messages []models.Message) ([]models.Message, error) {
	if len(messages) == 0 {
		return messages, nil
	}

	ids := make([]string, len(messages))
	quotedIDs := []string{}
	for i, m := range messages {
		ids[i] = m.ID
		if m.QuotedMessageID != nil && *m.QuotedMessageID != "" {
			quotedIDs = append(quotedIDs, *m.QuotedMessageID)
		}
	}

	attachments, err := s.messageRepo.GetAttachments(ctx, ids)
	if err != nil {
		return nil, err
	}
	reactions, err := s.reactionRepo.GetByMessageIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	quotedByID := map[string]*models.Message{}
	for _, qid := range quotedIDs {
		if _, seen := quotedByID[qid]; seen {
			continue
		}
		q, err := s.messageRepo.GetByID(ctx, qid)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				continue
			}
			return nil, err
		}
		quotedByID[qid] = q
	}

	for i := range messages {
		m := &messages[i]
		m.Attachments = attachments[m.ID]
		if m.Attachments == nil {
			m.Attachments = []models.Attachment{}
		}
		m.Reactions = models.ForViewer(reactions[m.ID], viewerID)
		if m.Reactions == nil {
			m.Reactions = []models.ReactionGroup{}
		}
		if m.DeletedAt != nil {
			placeholder := models.DeletedPlaceholder
			m.Content = &placeholder
		}
		if m.QuotedMessageID != nil {
			if q, ok := quotedByID[*m.QuotedMessageID]; ok {
				preview := &models.QuotedPreview{
					ID:       q.ID,
					AuthorID: q.AuthorID,
					Deleted:  q.DeletedAt != nil,
				}
				if q.DeletedAt != nil {
					preview.Excerpt = models.DeletedPlaceholder
				} else if m.QuotedExcerpt != nil {
					preview.Excerpt = *m.QuotedExcerpt
				} else {
					preview.Excerpt = truncateRunes(q.Display(), models.MaxQuotedExcerpt)
				}
				m.Quoted = preview
			}
		}
	}
	return messages, nil
}

func (s *MessageService) hydrateOne(ctx context.Context, viewerID string, msg *models.Message) (*models.Message, error) {
	hydrated, err := s.hydrate(ctx, viewerID, []models.Message{*msg})
	if err != nil {
		return nil, err
	}
	return &hydrated[0], nil
}

func (s *MessageService) broadcastMessage(eventType string, msg *models.Message) {
	payload, err := json.Marshal(viewerNeutral(msg))
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal message event")
		return
	}
	s.publisher.Publish(broker.Event{
		Room:    broker.RoomThread(msg.ThreadID),
		Type:    eventType,
		Payload: payload,
	})
}

func (s *MessageService) publishToUser(userID, eventType string, msg *models.Message) {
	if userID == "" {
		return
	}
	payload, err := json.Marshal(viewerNeutral(msg))
	if err != nil {
		return
	}
	s.publisher.Publish(broker.Event{
		Room:    broker.RoomUser(userID),
		Type:    eventType,
		Payload: payload,
	})
}

// viewerNeutral strips the per-viewer reaction flag from a pushed frame. A
// room fans out to many viewers; each client derives viewer_reacted from
// user_ids on its own side.
func viewerNeutral(msg *models.Message) *models.Message {
	if len(msg.Reactions) == 0 {
		return msg
	}
	out := *msg
	groups := make([]models.ReactionGroup, len(msg.Reactions))
	copy(groups, msg.Reactions)
	for i := range groups {
		groups[i].ViewerReacted = false
	}
	out.Reactions = groups
	return &out
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
