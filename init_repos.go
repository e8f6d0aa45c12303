// Repository layer wire-up.
package main

import (
	"database/sql"

	"github.com/mkaraca/shelftalk/repository"
)

// Repositories bundles every repository instance so the wire-up functions
// pass one value around instead of a parameter per repo.
type Repositories struct {
	Thread       repository.ThreadRepository
	Conversation repository.ConversationRepository
	Group        repository.GroupRepository
	Channel      repository.ChannelRepository
	Message      repository.MessageRepository
	Reaction     repository.ReactionRepository
	ReadState    repository.ReadStateRepository
	Activity     repository.ActivityRepository
	Invite       repository.InviteRepository
}

// initRepositories builds every repository over the shared pool. *sql.DB is
// a thread-safe connection pool; sharing one instance is the intended use.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		Thread:       repository.NewSQLiteThreadRepo(conn),
		Conversation: repository.NewSQLiteConversationRepo(conn),
		Group:        repository.NewSQLiteGroupRepo(conn),
		Channel:      repository.NewSQLiteChannelRepo(conn),
		Message:      repository.NewSQLiteMessageRepo(conn),
		Reaction:     repository.NewSQLiteReactionRepo(conn),
		ReadState:    repository.NewSQLiteReadStateRepo(conn),
		Activity:     repository.NewSQLiteActivityRepo(conn),
		Invite:       repository.NewSQLiteInviteRepo(conn),
	}
}
