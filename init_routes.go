// HTTP route registration.
//
// Ordering rule: literal paths register before parameterized ones, or the
// router reads the literal segment as a path value.
package main

import (
	"net/http"

	"github.com/mkaraca/shelftalk/middleware"
)

// initRoutes binds every endpoint to the mux behind the auth middleware.
func initRoutes(mux *http.ServeMux, h *Handlers, authMw *middleware.AuthMiddleware) {
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"shelftalk"}`))
	})

	// Groups
	mux.Handle("POST /api/groups", auth(h.Group.Create))
	mux.Handle("GET /api/groups/{groupId}", auth(h.Group.Get))
	mux.Handle("PATCH /api/groups/{groupId}", auth(h.Group.Update))
	mux.Handle("DELETE /api/groups/{groupId}", auth(h.Group.Delete))
	mux.Handle("POST /api/groups/{groupId}/transfer-ownership", auth(h.Group.TransferOwnership))

	// Membership
	mux.Handle("GET /api/groups/{groupId}/members", auth(h.Group.ListMembers))
	mux.Handle("POST /api/groups/{groupId}/members", auth(h.Group.AddMember))
	mux.Handle("DELETE /api/groups/{groupId}/members/{userId}", auth(h.Group.RemoveMember))
	mux.Handle("PATCH /api/groups/{groupId}/members/{userId}/role", auth(h.Group.ChangeRole))

	// Channels
	mux.Handle("GET /api/groups/{groupId}/channels", auth(h.Channel.List))
	mux.Handle("POST /api/groups/{groupId}/channels", auth(h.Channel.Create))
	mux.Handle("GET /api/channels/{channelId}", auth(h.Channel.Get))
	mux.Handle("PATCH /api/channels/{channelId}", auth(h.Channel.Update))
	mux.Handle("DELETE /api/channels/{channelId}", auth(h.Channel.Delete))

	// Conversations
	mux.Handle("GET /api/conversations", auth(h.Conversation.List))
	mux.Handle("POST /api/conversations", auth(h.Conversation.CreateOrGet))
	mux.Handle("GET /api/conversations/{conversationId}", auth(h.Conversation.Get))
	mux.Handle("POST /api/conversations/{conversationId}/archive", auth(h.Conversation.SetArchived))

	// Messages. A thread id is a conversation id or a channel id.
	mux.Handle("GET /api/threads/{threadId}/messages", auth(h.Message.List))
	mux.Handle("POST /api/threads/{threadId}/messages", auth(h.Message.Send))
	mux.Handle("GET /api/messages/{messageId}", auth(h.Message.Get))
	mux.Handle("PATCH /api/messages/{messageId}", auth(h.Message.Edit))
	mux.Handle("DELETE /api/messages/{messageId}", auth(h.Message.Delete))

	// Reactions
	mux.Handle("POST /api/messages/{messageId}/reactions", auth(h.Reaction.Toggle))
	mux.Handle("GET /api/messages/{messageId}/reactions", auth(h.Reaction.Get))

	// Read state
	mux.Handle("POST /api/threads/{threadId}/read", auth(h.ReadState.MarkRead))
	mux.Handle("GET /api/threads/{threadId}/read", auth(h.ReadState.GetCursor))
	mux.Handle("GET /api/unreads", auth(h.ReadState.ListUnread))

	// Activity feed
	mux.Handle("GET /api/feed/{view}", auth(h.Feed.Get))

	// Collaborator ingest: same auth; collaborators hold service tokens
	// signed with the shared secret.
	mux.Handle("POST /api/internal/activities", auth(h.Collab.EmitActivity))
	mux.Handle("PUT /api/internal/shelves", auth(h.Collab.SyncShelves))

	// Invites
	mux.Handle("GET /api/groups/{groupId}/invites", auth(h.Invite.List))
	mux.Handle("POST /api/groups/{groupId}/invites", auth(h.Invite.Create))
	mux.Handle("POST /api/invites/{code}/redeem", auth(h.Invite.Redeem))

	// Uploads
	mux.Handle("POST /api/upload", auth(h.Upload.Upload))
	mux.Handle("GET /api/uploads/{ref}", auth(h.Upload.Serve))

	// WebSocket. Browsers cannot set headers on the upgrade request, so the
	// handler validates a token query parameter itself.
	mux.HandleFunc("GET /ws", h.WS.ServeWS)
}
