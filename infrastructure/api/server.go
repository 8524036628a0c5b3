// Package api exposes the REST surface next to the socket endpoint.
package api

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/services"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// CountsProvider backs GET /debug/db.
type CountsProvider interface {
	Counts() (repositories.Counts, error)
}

// StatsProvider backs GET /debug/stats.
type StatsProvider interface {
	Refresh() observability.MonitoringStats
}

type Server struct {
	authService    services.IAuthService
	userService    services.IUserService
	groupService   services.IGroupService
	messageService services.IMessageService
	authenticator  contract.Authenticator
	counts         CountsProvider
	stats          StatsProvider
	log            *slog.Logger
}

func NewServer(authService services.IAuthService, userService services.IUserService,
	groupService services.IGroupService, messageService services.IMessageService,
	authenticator contract.Authenticator, counts CountsProvider, stats StatsProvider, log *slog.Logger) *Server {
	return &Server{
		authService:    authService,
		userService:    userService,
		groupService:   groupService,
		messageService: messageService,
		authenticator:  authenticator,
		counts:         counts,
		stats:          stats,
		log:            log,
	}
}

// Routes registers every endpoint on mux. Everything but login, health and
// the debug endpoints requires a bearer token.
func (s *Server) Routes(mux *http.ServeMux) {
	protected := auth.RequireBearer(s.authenticator, func(w http.ResponseWriter, err error) {
		writeError(w, s.log, err)
	})
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protected(fn))
	}

	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /debug/db", s.debugDB)
	mux.HandleFunc("GET /debug/stats", s.debugStats)

	handle("GET /users", s.listUsers)
	handle("GET /users/search", s.searchUsers)
	handle("GET /users/recent-chats", s.recentChats)
	handle("GET /users/online", s.onlineUsers)
	handle("PUT /users/fcm-token", s.updateDeviceToken)
	handle("GET /users/{id}", s.getUser)

	handle("GET /groups", s.myGroups)
	handle("GET /groups/all", s.allGroups)
	handle("POST /groups", s.createGroup)
	handle("GET /groups/{id}", s.getGroup)
	handle("POST /groups/{id}/join", s.joinGroup)
	handle("DELETE /groups/{id}/leave", s.leaveGroup)

	handle("GET /messages/dm/{otherUserId}", s.directHistory)
	handle("POST /messages/dm", s.postDirect)
	handle("GET /messages/group/{groupId}", s.groupHistory)
	handle("POST /messages/group", s.postGroup)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body auth.LoginRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}
	session, err := s.authService.Login(body.Username, body.Password)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: session.Token, User: toUser(session.User)})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) debugDB(w http.ResponseWriter, _ *http.Request) {
	counts, err := s.counts.Counts()
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) debugStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Refresh())
}

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
