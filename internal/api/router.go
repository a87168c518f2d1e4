package api

import (
	"net/http"

	"github.com/St1cky1/tasks-api/internal/api/handlers"
	apimw "github.com/St1cky1/tasks-api/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	AllowedOrigins []string
	// Healthz - HTTP обработчик health-check (grpc-gateway), может быть nil
	Healthz http.Handler
}

func NewRouter(taskHandler *handlers.TaskHandler, cfg RouterConfig, logger logrus.FieldLogger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	cors := apimw.CORS(cfg.AllowedOrigins)

	// Нестандартные методы chi отклоняет до маршрутизации, CORS проверяем и для них
	r.MethodNotAllowed(cors(http.HandlerFunc(handlers.MethodNotAllowed)).ServeHTTP)

	r.Route("/tasks", func(r chi.Router) {
		r.Use(cors)
		r.MethodNotAllowed(handlers.MethodNotAllowed)

		r.Post("/", taskHandler.CreateTask)
		r.Get("/", taskHandler.ListTasks)
		r.Put("/", taskHandler.UpdateTask)
		r.Delete("/", taskHandler.DeleteTask)
		// ответ на preflight пишет CORS middleware
		r.Options("/", func(w http.ResponseWriter, r *http.Request) {})
	})

	if cfg.Healthz != nil {
		r.Method(http.MethodGet, "/healthz", cfg.Healthz)
	}

	return r
}
