package handlers

import (
	"net/http"
	"strconv"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// FeedHandler exposes the activity feed views.
type FeedHandler struct {
	activityService *services.ActivityService
}

// NewFeedHandler wires the handler.
func NewFeedHandler(activityService *services.ActivityService) *FeedHandler {
	return &FeedHandler{activityService: activityService}
}

// Get handles GET /api/feed/{view}?cursor=...&limit=N plus, for the shelves
// view, repeatable shelf_id and book_id filters.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	view := models.FeedView(r.PathValue("view"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	filters := models.FeedFilters{
		ShelfIDs: r.URL.Query()["shelf_id"],
		BookIDs:  r.URL.Query()["book_id"],
	}

	page, err := h.activityService.Feed(r.Context(), userID, view, filters, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}
