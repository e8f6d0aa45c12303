// Handler layer wire-up.
package main

import (
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/config"
	"github.com/mkaraca/shelftalk/handlers"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/ws"
)

// Handlers bundles every HTTP handler instance.
type Handlers struct {
	Group        *handlers.GroupHandler
	Channel      *handlers.ChannelHandler
	Conversation *handlers.ConversationHandler
	Message      *handlers.MessageHandler
	Reaction     *handlers.ReactionHandler
	ReadState    *handlers.ReadStateHandler
	Feed         *handlers.FeedHandler
	Collab       *handlers.CollabHandler
	Invite       *handlers.InviteHandler
	Upload       *handlers.UploadHandler
	WS           *ws.Handler
}

// initHandlers builds the handler layer. The websocket handler authorizes
// room subscriptions through the thread guard.
func initHandlers(svcs *Services, b broker.Broker, store *pkg.BlobStore, cfg *config.Config, logger zerolog.Logger) *Handlers {
	return &Handlers{
		Group:        handlers.NewGroupHandler(svcs.Group),
		Channel:      handlers.NewChannelHandler(svcs.Channel),
		Conversation: handlers.NewConversationHandler(svcs.Conversation),
		Message:      handlers.NewMessageHandler(svcs.Message),
		Reaction:     handlers.NewReactionHandler(svcs.Reaction),
		ReadState:    handlers.NewReadStateHandler(svcs.ReadState),
		Feed:         handlers.NewFeedHandler(svcs.Activity),
		Collab:       handlers.NewCollabHandler(svcs.Activity),
		Invite:       handlers.NewInviteHandler(svcs.Invite),
		Upload:       handlers.NewUploadHandler(store),
		WS:           ws.NewHandler(b, svcs.Guard, cfg.JWT.Secret, logger),
	}
}
