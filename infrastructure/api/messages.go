package api

import (
	"chat-relay/auth"
	"chat-relay/domain/event"
	"net/http"
)

func (s *Server) directHistory(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	page, limit := pagination(r)
	msgs, err := s.messageService.DirectHistory(me.ID, r.PathValue("otherUserId"), page, limit)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessages(msgs))
}

func (s *Server) groupHistory(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	page, limit := pagination(r)
	msgs, err := s.messageService.GroupHistory(me.ID, r.PathValue("groupId"), page, limit)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessages(msgs))
}

func (s *Server) postDirect(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	var body directMessageRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}
	msg, err := s.messageService.PostDirect(me, body.ReceiverID, body.Content)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, event.ToMessagePayload(msg))
}

func (s *Server) postGroup(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	var body groupMessageRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}
	msg, err := s.messageService.PostGroup(me, body.GroupID, body.Content)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, event.ToMessagePayload(msg))
}
