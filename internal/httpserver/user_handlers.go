package httpserver

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"messaging/internal/domain"
	"messaging/internal/service"
	"messaging/internal/ws"
)

func handleListUsers(userSvc *service.UserService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		users, err := userSvc.ListActive(r.Context(), offset, limit)
		if err != nil {
			writeError(w, log, err)
			return
		}
		if users == nil {
			users = []*domain.User{}
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// handleListOnlineUsers reports coarse presence straight from the hub;
// presence is process state and is never persisted.
func handleListOnlineUsers(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := hub.OnlineUserIDs()
		if ids == nil {
			ids = []int64{}
		}
		writeJSON(w, http.StatusOK, map[string][]int64{"online_user_ids": ids})
	}
}
