package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message limits.
const (
	MaxMessageLength = 4000
	MaxQuotedExcerpt = 500
)

// DeletedPlaceholder is rendered in place of the content of a soft-deleted
// message, so quotes and threads stay resolvable.
const DeletedPlaceholder = "[message deleted]"

// Message is one entry in the append-only ledger. Seq is ledger-assigned;
// clients never supply it. EditedBy is set only when someone other than the
// author (a moderator or owner) edits. Deletion is always soft.
type Message struct {
	ID              string       `json:"id"`
	ThreadID        string       `json:"thread_id"`
	Seq             int64        `json:"seq"`
	AuthorID        string       `json:"author_id"`
	Content         *string      `json:"content"`
	CreatedAt       time.Time    `json:"created_at"`
	EditedAt        *time.Time   `json:"edited_at,omitempty"`
	EditedBy        *string      `json:"edited_by,omitempty"`
	DeletedAt       *time.Time   `json:"deleted_at,omitempty"`
	DeletedBy       *string      `json:"deleted_by,omitempty"`
	QuotedMessageID *string      `json:"quoted_message_id,omitempty"`
	QuotedExcerpt   *string      `json:"quoted_excerpt,omitempty"`
	Attachments     []Attachment `json:"attachments"`

	// Loaded by the same aggregation query used for live updates, so the
	// initial render and a pushed update can never disagree.
	Reactions []ReactionGroup `json:"reactions"`

	// Quote preview; nil when nothing is quoted, placeholder content when the
	// quoted message was deleted.
	Quoted *QuotedPreview `json:"quoted,omitempty"`
}

// IsQuote reports whether the message itself quotes another. Used to enforce
// the depth-1 rule: a message may not quote a quote.
func (m *Message) IsQuote() bool {
	return m.QuotedMessageID != nil && *m.QuotedMessageID != ""
}

// Display returns the content with the soft-delete placeholder applied.
func (m *Message) Display() string {
	if m.DeletedAt != nil {
		return DeletedPlaceholder
	}
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// QuotedPreview is the one-level-deep render of a quoted message.
type QuotedPreview struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	Excerpt  string `json:"excerpt"`
	Deleted  bool   `json:"deleted"`
}

// Attachment is an opaque blob reference attached to a message, ordered by
// position. The core never reads the bytes behind the ref.
type Attachment struct {
	ID           string  `json:"id"`
	MessageID    string  `json:"message_id"`
	BlobRef      string  `json:"blob_ref"`
	ThumbnailRef *string `json:"thumbnail_ref,omitempty"`
	Position     int     `json:"position"`
}

// AttachmentRef is the inbound shape: what the blob store handed the client.
type AttachmentRef struct {
	BlobRef      string  `json:"blob_ref"`
	ThumbnailRef *string `json:"thumbnail_ref,omitempty"`
}

// MessagePage is a seq-cursor page of one thread, oldest first.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// SendMessageRequest appends a message to a thread.
//
// ClientNonce makes reconnect-and-resend idempotent: the ledger keeps a
// unique (thread, author, nonce) index and a replay returns the original
// message instead of appending twice.
type SendMessageRequest struct {
	Content         string          `json:"content"`
	QuotedMessageID *string         `json:"quoted_message_id,omitempty"`
	QuotedExcerpt   *string         `json:"quoted_excerpt,omitempty"`
	Attachments     []AttachmentRef `json:"attachments,omitempty"`
	ClientNonce     *string         `json:"client_nonce,omitempty"`
}

func (r *SendMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)

	if contentLen == 0 && len(r.Attachments) == 0 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > MaxMessageLength {
		return fmt.Errorf("message content must be at most %d characters", MaxMessageLength)
	}
	if r.QuotedExcerpt != nil && utf8.RuneCountInString(*r.QuotedExcerpt) > MaxQuotedExcerpt {
		return fmt.Errorf("quoted excerpt must be at most %d characters", MaxQuotedExcerpt)
	}
	if r.QuotedExcerpt != nil && (r.QuotedMessageID == nil || *r.QuotedMessageID == "") {
		return fmt.Errorf("quoted_excerpt requires quoted_message_id")
	}
	return nil
}

// EditMessageRequest replaces a message's content.
type EditMessageRequest struct {
	Content string `json:"content"`
}

func (r *EditMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > MaxMessageLength {
		return fmt.Errorf("message content must be at most %d characters", MaxMessageLength)
	}
	return nil
}
