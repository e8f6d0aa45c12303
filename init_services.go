// Service layer wire-up.
package main

import (
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/config"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// Services bundles every service instance.
type Services struct {
	Guard        *services.ThreadGuard
	Group        *services.GroupService
	Channel      *services.ChannelService
	Conversation *services.ConversationService
	Message      *services.MessageService
	Reaction     *services.ReactionService
	ReadState    *services.ReadStateService
	Activity     *services.ActivityService
	Invite       *services.InviteService
}

// initServices builds the service layer. Services get the pool for
// transactions, their repositories, and the broker as a plain Publisher.
func initServices(conn *sql.DB, repos *Repositories, publisher broker.Publisher, cfg *config.Config, logger zerolog.Logger) *Services {
	guard := services.NewThreadGuard(repos.Thread, repos.Conversation, repos.Channel, repos.Group)
	activity := services.NewActivityService(conn, repos.Activity, publisher, logger)

	var sender pkg.EmailSender
	if cfg.Email.ResendAPIKey != "" {
		sender = pkg.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
	} else {
		sender = pkg.NewNoopSender()
	}

	return &Services{
		Guard:        guard,
		Group:        services.NewGroupService(conn, repos.Group, repos.Channel, repos.Thread, logger),
		Channel:      services.NewChannelService(conn, repos.Channel, repos.Thread, repos.Group, logger),
		Conversation: services.NewConversationService(conn, repos.Conversation, repos.Thread, logger),
		Message:      services.NewMessageService(conn, repos.Message, repos.Thread, repos.Reaction, repos.ReadState, guard, activity, publisher, logger),
		Reaction:     services.NewReactionService(repos.Reaction, repos.Message, guard, activity, publisher, logger),
		ReadState:    services.NewReadStateService(conn, repos.ReadState, guard, publisher, logger),
		Activity:     activity,
		Invite:       services.NewInviteService(conn, repos.Invite, repos.Group, sender, logger),
	}
}
