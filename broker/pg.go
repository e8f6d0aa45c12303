package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// fanoutChannel is the NOTIFY channel shared by all processes.
const fanoutChannel = "shelftalk_fanout"

// PgBridge fans events out across processes over Postgres LISTEN/NOTIFY.
// Each process tags outgoing envelopes with its origin id and skips its own
// notifications, so an event is delivered locally exactly once.
//
// The bridge is best-effort: a Postgres outage degrades delivery to
// process-local but never fails or delays a mutation.
type PgBridge struct {
	origin string
	pool   *pgxpool.Pool
	local  *LocalBroker
	out    chan Event
	logger zerolog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// NewPgBridge connects the pool and starts the listen and send loops.
func NewPgBridge(ctx context.Context, url string, local *LocalBroker, logger zerolog.Logger) (*PgBridge, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b := &PgBridge{
		origin: uuid.NewString(),
		pool:   pool,
		local:  local,
		out:    make(chan Event, 1024),
		logger: logger.With().Str("component", "pg_bridge").Logger(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go b.listenLoop(runCtx)
	go b.sendLoop(runCtx)
	return b, nil
}

// Forward queues the event for NOTIFY. Drops when the queue is full rather
// than blocking the publisher.
func (b *PgBridge) Forward(event Event) {
	select {
	case b.out <- event:
	default:
		b.logger.Warn().Str("room", event.Room).Msg("fanout queue full, dropping event")
	}
}

func (b *PgBridge) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.out:
			payload, err := json.Marshal(envelope{Origin: b.origin, Event: event})
			if err != nil {
				b.logger.Error().Err(err).Msg("marshal fanout envelope")
				continue
			}
			sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_, err = b.pool.Exec(sendCtx, "SELECT pg_notify($1, $2)", fanoutChannel, string(payload))
			cancel()
			if err != nil {
				b.logger.Warn().Err(err).Msg("notify failed, event stays process-local")
			}
		}
	}
}

func (b *PgBridge) listenLoop(ctx context.Context) {
	defer close(b.done)
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		if err := b.listen(ctx); err != nil && ctx.Err() == nil {
			b.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("listen connection lost")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
	}
}

func (b *PgBridge) listen(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+fanoutChannel); err != nil {
		return err
	}
	b.logger.Info().Msg("listening for cross-process events")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var env envelope
		if err := json.Unmarshal([]byte(notification.Payload), &env); err != nil {
			b.logger.Warn().Err(err).Msg("malformed fanout envelope")
			continue
		}
		if env.Origin == b.origin {
			continue
		}
		b.local.DeliverLocal(env.Event)
	}
}

// Close stops the loops and releases the pool.
func (b *PgBridge) Close() {
	b.cancel()
	<-b.done
	b.pool.Close()
}
