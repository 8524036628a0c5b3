package api

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"net/http"
)

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := s.userService.ListUsers()
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsers(users))
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	users, err := s.userService.SearchUsers(r.Context(), r.URL.Query().Get("q"), me.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsers(users))
}

func (s *Server) recentChats(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	peers, err := s.userService.RecentChats(me.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	response := make([]peerResponse, 0, len(peers))
	for _, p := range peers {
		response = append(response, peerResponse{User: toUser(p.User), LastMessage: p.LastMessage, LastAt: p.LastAt})
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) onlineUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.userService.OnlineUsers())
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.userService.GetUser(r.PathValue("id"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) updateDeviceToken(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	var body deviceTokenRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := auth.Validate(body); err != nil {
		writeError(w, s.log, errors.NewValidationError("fcmToken is required."))
		return
	}
	if err := s.userService.UpdateDeviceToken(me.ID, body.FCMToken); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "FCM token updated."})
}
