package models

import (
	"fmt"
	"time"
)

// ReadCursor is the watermark "read up to seq N" for one participant in one
// thread. Updates are monotonic: a stale cursor never moves it backwards.
type ReadCursor struct {
	ThreadID    string    `json:"thread_id"`
	UserID      string    `json:"user_id"`
	LastReadSeq int64     `json:"last_read_seq"`
	LastReadAt  time.Time `json:"last_read_at"`
}

// UnreadInfo is one thread's unread count for the sidebar badge.
type UnreadInfo struct {
	ThreadID    string `json:"thread_id"`
	UnreadCount int    `json:"unread_count"`
}

// MarkReadRequest advances the read cursor.
type MarkReadRequest struct {
	UptoSeq int64 `json:"upto_seq"`
}

func (r *MarkReadRequest) Validate() error {
	if r.UptoSeq < 1 {
		return fmt.Errorf("upto_seq must be positive")
	}
	return nil
}
