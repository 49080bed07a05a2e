package server

import (
	"context"
	"net/http"
	"time"

	"diamond-hands/internal/config"
	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

type Server struct {
	cfg      config.Config
	ledger   *ledger.Client
	logger   *zap.Logger
	ws       *wsHub
	sessions *sessionStore
	feed     *matchFeed
	rules    game.Rules
	stop     context.CancelFunc
}

// New builds the HTTP front end. client may be nil, in which case rooms can
// only be hosted locally.
func New(client *ledger.Client, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		ledger: client,
		logger: logger,
		ws:     newWSHub(logger),
		rules: game.Rules{
			TotalRounds:  cfg.TotalRounds,
			WinningScore: cfg.WinningScore,
		},
	}
	s.feed = newMatchFeed(s.ws, s.historyLimit())
	s.sessions = newSessionStore(s.newCoordinator, cfg.SessionIdle())

	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	go s.sessions.runReaper(ctx, s.ws.Has, logger.Named("sessions"))
	return s
}

func (s *Server) newCoordinator(sessionID string) *room.Coordinator {
	coord := room.NewCoordinator(room.Options{
		Ledger:          s.ledger,
		Rules:           s.rules,
		Debounce:        s.cfg.PublishDebounce(),
		PollInterval:    s.cfg.PollInterval(),
		Logger:          s.logger.With(zap.String("session", shortID(sessionID))),
		OnMatchArchived: s.announceMatch,
	})
	coord.OnChange(func() {
		s.ws.Broadcast(sessionID, coord.View())
	})
	return coord
}

func (s *Server) announceMatch(result ledger.MatchResult) {
	if s.feed.Add(result) {
		s.logger.Debug("match announced", zap.String("match_id", result.MatchID))
	}
}

func (s *Server) Handler() http.Handler {
	if !s.cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.GET("/", s.handleHome)
	router.GET("/watch/:code", s.handleWatchView)

	api := router.Group("/api")
	api.GET("/rules", s.handleRules)
	api.GET("/room", s.handleRoom)
	api.POST("/rooms", s.handleCreateRoom)
	api.POST("/rooms/join", s.handleJoinRoom)
	api.POST("/rooms/leave", s.handleLeaveRoom)
	api.POST("/game/:action", s.handleGameAction)
	api.GET("/matches/:publisher", s.handleMatches)

	router.GET("/ws/room", s.handleRoomWebsocket)
	router.GET("/ws/matches", s.handleMatchFeedWebsocket)

	var handler http.Handler = router
	handler = handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowCredentials(),
	)(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
		handlers.PrintRecoveryStack(s.cfg.IsDev()),
	)(handler)
	return handler
}

// Close stops the session reaper and tears down every session's room.
func (s *Server) Close() {
	s.stop()
	s.sessions.CloseAll()
}

func (s *Server) historyLimit() int {
	if s.cfg.MatchHistoryLimit > 0 {
		return s.cfg.MatchHistoryLimit
	}
	return ledger.DefaultHistoryLimit
}

func (s *Server) pollSeconds() int {
	return int(s.cfg.PollInterval() / time.Second)
}
