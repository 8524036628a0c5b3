package api

import (
	"chat-relay/auth"
	"net/http"
)

func (s *Server) myGroups(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	groups, err := s.groupService.MyGroups(me.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroups(groups))
}

func (s *Server) allGroups(w http.ResponseWriter, _ *http.Request) {
	groups, err := s.groupService.AllGroups()
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroups(groups))
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groupService.GetGroup(r.PathValue("id"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroup(group))
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	var body createGroupRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}
	group, err := s.groupService.CreateGroup(body.Name, me.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroup(group))
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	group, err := s.groupService.Join(me.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroup(group))
}

func (s *Server) leaveGroup(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.IdentityFromContext(r.Context())
	if err := s.groupService.Leave(me.ID, r.PathValue("id")); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Left group."})
}
