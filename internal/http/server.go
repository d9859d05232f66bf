package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"universe/internal/auth"
	"universe/internal/config"
	"universe/internal/lostfound"
	"universe/internal/metrics"
	"universe/internal/model"
	"universe/internal/repository"
	"universe/internal/rooms"
	"universe/internal/storage"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (auth.RegisterResult, error)
	Login(ctx context.Context, in auth.LoginInput) (auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (model.Identity, error)
	VerifyEmail(ctx context.Context, in auth.VerifyEmailInput) error
	ResendVerification(ctx context.Context, userID int64) (string, error)
	CurrentUser(ctx context.Context, userID int64) (auth.CurrentUser, error)
	SetUserActive(ctx context.Context, userID int64, active bool) error
}

type ItemService interface {
	Create(ctx context.Context, kind model.ItemKind, userID int64, in lostfound.CreateInput, uploads []lostfound.Upload) (model.Item, error)
	List(ctx context.Context, kind model.ItemKind, f repository.ItemFilter) (lostfound.ListResult, error)
	Get(ctx context.Context, kind model.ItemKind, itemID int64) (model.Item, error)
	Resolve(ctx context.Context, kind model.ItemKind, itemID, userID int64) error
	AddComment(ctx context.Context, kind model.ItemKind, itemID, userID int64, content string) (model.Comment, error)
	Comments(ctx context.Context, kind model.ItemKind, itemID int64) ([]model.Comment, error)
	Images(ctx context.Context, kind model.ItemKind, itemID int64) ([]string, error)
}

type RoomService interface {
	FreeRooms(ctx context.Context, q rooms.FreeRoomsQuery) (rooms.FreeRooms, error)
	CourseAt(ctx context.Context, roomCode string, q rooms.AtTimeQuery) (rooms.CourseAtTime, error)
	Schedule(ctx context.Context, roomID int64, day *int32) (rooms.Schedule, error)
	IsOccupied(ctx context.Context, roomID int64, q rooms.AtTimeQuery) (rooms.Occupancy, error)
}

// Streamer upgrades an authenticated request to a live topic feed.
type Streamer interface {
	ServeTopic(w http.ResponseWriter, r *http.Request, topic string)
}

type Deps struct {
	Auth    AuthService
	Items   ItemService
	Rooms   RoomService
	Live    Streamer
	Metrics *metrics.Metrics
	Log     logrus.FieldLogger
}

type Server struct {
	cfg     config.Config
	auth    AuthService
	items   ItemService
	rooms   RoomService
	live    Streamer
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewServer(cfg config.Config, deps Deps) *Server {
	return &Server{
		cfg:     cfg,
		auth:    deps.Auth,
		items:   deps.Items,
		rooms:   deps.Rooms,
		live:    deps.Live,
		metrics: deps.Metrics,
		log:     deps.Log,
		now:     time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": s.now().UTC().Format(time.RFC3339Nano),
		})
	})
	r.Handle("/metrics", s.metrics.Handler())
	if s.cfg.CloudinaryURL == "" && s.cfg.UploadDir != "" {
		files := http.StripPrefix(storage.PublicPrefix, http.FileServer(http.Dir(s.cfg.UploadDir)))
		r.Handle(storage.PublicPrefix+"*", files)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/verify-email", s.handleVerifyEmail)
		r.With(s.authMiddleware).Post("/logout", s.handleLogout)
		r.With(s.authMiddleware).Get("/me", s.handleMe)
		r.With(s.authMiddleware).Post("/resend-verification", s.handleResendVerification)
	})

	r.With(s.authMiddleware, s.requireRole(model.RoleAdmin)).Patch("/admin/users/{userId}/active", s.handleSetUserActive)

	r.Route("/rooms", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/free", s.handleFreeRooms)
		r.Get("/{room}/at", s.handleRoomCourseAt)
		r.Get("/{room}/schedule", s.handleRoomSchedule)
		r.Get("/{room}/occupied", s.handleRoomOccupied)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		for _, kind := range []model.ItemKind{model.KindLost, model.KindFound} {
			base := "/" + string(kind) + "-items"
			r.Post(base, s.handleCreateItem(kind))
			r.Get(base, s.handleListItems(kind))
			r.Get(base+"/{id}", s.handleGetItem(kind))
			r.Patch(base+"/{id}/resolve", s.handleResolveItem(kind))
		}
		r.Post("/{type}/{id}/comments", s.handleAddComment)
		r.Get("/{type}/{id}/comments", s.handleListComments)
		r.Get("/{type}/{id}/images", s.handleListImages)
	})
	r.With(queryTokenFallback, s.authMiddleware).Get("/{type}/{id}/comments/stream", s.handleCommentStream)

	return r
}
