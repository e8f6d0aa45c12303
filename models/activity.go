package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Activity types produced by the messaging core. Collaborators add their own
// (comment, review, navigation, ...) through the ingest endpoint; the feed
// treats the type as an opaque label.
const (
	ActivityMessageSent   = "message_sent"
	ActivityReplyReceived = "reply_received"
	ActivityReaction      = "reaction_added"
)

// ActivityRecord is the normalized projection of one source event. It is the
// only entity written by multiple producers; the feed reads nothing else, so
// feed shape stays decoupled from source-entity shape.
//
// TargetUserID routes the record into a personal feed: it names who the
// activity happened TO, never merely who acted. BookID routes it into shelf
// feeds. Append-only, soft-deleted when the source entity goes away.
type ActivityRecord struct {
	ID           string          `json:"id"`
	ActivityType string          `json:"activity_type"`
	SourceType   string          `json:"source_type"`
	SourceID     string          `json:"source_id"`
	ActorID      string          `json:"actor_id"`
	TargetUserID *string         `json:"target_user_id,omitempty"`
	BookID       *string         `json:"book_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
}

// FeedView selects one of the three read views.
type FeedView string

const (
	FeedGlobal   FeedView = "global"
	FeedPersonal FeedView = "personal"
	FeedShelves  FeedView = "shelves"
)

// MaxFeedLimit caps one feed page.
const MaxFeedLimit = 100

// FeedPage is one cursor page of a view, newest first. NextCursor is empty
// on the last page.
type FeedPage struct {
	Records    []ActivityRecord `json:"records"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// FeedFilters narrows the shelves view to explicit shelf or book ids.
type FeedFilters struct {
	ShelfIDs []string
	BookIDs  []string
}

// FeedCursor is the (created_at, id) position of the last record of the
// previous page, the same ordering key clients dedupe live-pushed records
// against.
type FeedCursor struct {
	CreatedAt time.Time
	ID        string
}

// Encode renders the cursor as an opaque URL-safe token.
func (c FeedCursor) Encode() string {
	raw := fmt.Sprintf("%d|%s", c.CreatedAt.UTC().UnixNano(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeFeedCursor parses a cursor token. Empty input yields a nil cursor,
// meaning "start from the newest record".
func DecodeFeedCursor(token string) (*FeedCursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed cursor")
	}
	var nanos int64
	if _, err := fmt.Sscanf(parts[0], "%d", &nanos); err != nil {
		return nil, fmt.Errorf("malformed cursor")
	}
	return &FeedCursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: parts[1]}, nil
}

// EmitActivityRequest is the collaborator ingest shape (comments, reviews,
// navigation events).
type EmitActivityRequest struct {
	ActivityType string          `json:"activity_type"`
	SourceType   string          `json:"source_type"`
	SourceID     string          `json:"source_id"`
	ActorID      string          `json:"actor_id"`
	TargetUserID *string         `json:"target_user_id,omitempty"`
	BookID       *string         `json:"book_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

func (r *EmitActivityRequest) Validate() error {
	if strings.TrimSpace(r.ActivityType) == "" {
		return fmt.Errorf("activity_type is required")
	}
	if strings.TrimSpace(r.SourceType) == "" || strings.TrimSpace(r.SourceID) == "" {
		return fmt.Errorf("source_type and source_id are required")
	}
	if strings.TrimSpace(r.ActorID) == "" {
		return fmt.Errorf("actor_id is required")
	}
	return nil
}

// SyncShelvesRequest replaces the shelf projection for one user. Sent by the
// book subsystem whenever shelves change.
type SyncShelvesRequest struct {
	UserID  string       `json:"user_id"`
	Shelves []ShelfBooks `json:"shelves"`
}

// ShelfBooks lists the books on one shelf.
type ShelfBooks struct {
	ShelfID string   `json:"shelf_id"`
	BookIDs []string `json:"book_ids"`
}

func (r *SyncShelvesRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	for _, s := range r.Shelves {
		if strings.TrimSpace(s.ShelfID) == "" {
			return fmt.Errorf("shelf_id is required")
		}
	}
	return nil
}
