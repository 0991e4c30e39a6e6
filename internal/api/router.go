package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/subtitle-merge/backend/internal/api/handlers"
	"github.com/subtitle-merge/backend/internal/api/middleware"
	"github.com/subtitle-merge/backend/internal/auth"
	"github.com/subtitle-merge/backend/internal/config"
	"github.com/subtitle-merge/backend/internal/db"
	"github.com/subtitle-merge/backend/internal/job"
	"github.com/subtitle-merge/backend/internal/subtitle/merge"
)

func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, jobQueue *job.JobQueue) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))
	r.Use(middleware.MaxBodySize(int64(cfg.MaxUploadMB) << 20))

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService)
	mergeHandler := handlers.NewMergeHandler(database, cfg.LibraryPath)
	historyHandler := handlers.NewHistoryHandler(database)
	filesHandler := handlers.NewFilesHandler(cfg.LibraryPath)
	jobHandler := handlers.NewJobHandler(jobQueue)
	settingsHandler := handlers.NewSettingsHandler(database)
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	adminHandler := handlers.NewAdminHandler(database, cfg.LibraryPath, loginLimiter)

	jobQueue.RegisterHandler(job.JobMerge, mergeJobHandler(database, cfg.LibraryPath))

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.With(loginLimiter.Handler).Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			// Auth
			r.Get("/auth/me", authHandler.Me)

			// Merging
			r.Post("/merge", mergeHandler.Merge)
			r.Post("/merge/upload", mergeHandler.MergeUpload)
			r.Post("/merge/library", mergeHandler.MergeLibrary)
			r.Post("/merge/sequential", mergeHandler.MergeSequential)

			// History
			r.Get("/merges", historyHandler.ListMerges)
			r.Get("/merges/{id}", historyHandler.GetMerge)
			r.Get("/merges/{id}/document", historyHandler.DownloadDocument)
			r.Get("/merges/{id}/diagnostics", historyHandler.DownloadDiagnostics)

			// Library files
			r.Get("/files/tree", filesHandler.GetTree)
			r.Get("/files/tree/*", filesHandler.GetTree)
			r.Get("/files/search", filesHandler.Search)

			// Jobs
			r.Post("/jobs", jobHandler.CreateJob)
			r.Get("/jobs", jobHandler.ListJobs)
			r.Get("/jobs/{id}", jobHandler.GetJob)
			r.Post("/jobs/{id}/cancel", jobHandler.CancelJob)
			r.Post("/jobs/{id}/retry", jobHandler.RetryJob)

			// Settings
			r.Get("/settings", settingsHandler.GetSettings)

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))

				r.Put("/settings", settingsHandler.UpdateSettings)
				r.Delete("/merges/{id}", historyHandler.DeleteMerge)
				r.Get("/admin/users", adminHandler.ListUsers)
				r.Post("/admin/users", adminHandler.CreateUser)
				r.Put("/admin/users/{id}", adminHandler.UpdateUser)
				r.Delete("/admin/users/{id}", adminHandler.DeleteUser)
				r.Get("/admin/stats", adminHandler.DashboardStats)
				r.Get("/admin/rate-limit", adminHandler.RateLimitStatus)
				r.Delete("/admin/rate-limit", adminHandler.RateLimitClear)
			})
		})
	})

	return r
}

// mergeJobHandler builds the queue handler for batch merges: load the
// requested library files, run the raw merge, persist the result to the
// history.
func mergeJobHandler(database *db.Database, libraryPath string) job.JobHandler {
	return func(ctx context.Context, j *job.Job, updateProgress func(float64)) (json.RawMessage, error) {
		var params job.MergeParams
		if err := json.Unmarshal(j.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid job params: %w", err)
		}
		if len(params.Paths) == 0 {
			return nil, fmt.Errorf("no paths supplied")
		}

		files, err := handlers.LoadLibraryFiles(libraryPath, params.Paths)
		if err != nil {
			return nil, err
		}
		updateProgress(0.25)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := merge.Documents(files)
		updateProgress(0.75)

		mergeID, err := handlers.SaveMergeResult(database, params.CreatedBy, files, result)
		if err != nil {
			return nil, fmt.Errorf("failed to save merge: %w", err)
		}

		return json.Marshal(job.MergeJobResult{
			MergeID:     mergeID,
			OutputCues:  result.Stats.TotalOutputCues,
			ParseIssues: result.Stats.ParseIssuesCount,
		})
	}
}
