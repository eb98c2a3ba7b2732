package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/spf13/cobra"
)

// Server wires the API handlers onto one mux.
type Server struct {
	config     *Config
	db         *sql.DB
	logger     *slog.Logger
	store      *profile.Store
	authAPI    *AuthAPI
	profileAPI *ProfileAPI
	serverAPI  *ServerAPI
	apiMux     *http.ServeMux
}

func NewServer(config *Config, logger *slog.Logger, db *sql.DB, store *profile.Store, actionChan chan string) (*Server, error) {
	if err := setupAuthSchema(db); err != nil {
		return nil, fmt.Errorf("failed to setup auth schema: %w", err)
	}

	server := &Server{
		config:     config,
		db:         db,
		logger:     logger,
		store:      store,
		authAPI:    NewAuthAPI(db, logger),
		profileAPI: NewProfileAPI(store, config, logger),
		serverAPI:  NewServerAPI(config, actionChan, logger),
		apiMux:     http.NewServeMux(),
	}

	apiMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(apiMux)
	server.profileAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Everything under /api/ is authenticated except the health check.
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", server.authAPI.Authenticate(apiMux))

	return server, nil
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.apiMux.ServeHTTP(rec, r)
		s.logger.Debug("API request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote_addr", getClientIP(r),
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func getClientIP(r *http.Request) string {
	// Set by reverse proxies such as nginx.
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}
	// The first entry is the original client.
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		ips := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the profile HTTP API",
	Long: `Serves the HTTP API on server_config.api_addr. Requests under /api/ need a key in
the qsa-auth header once the first key has been created via /api/auth/keys.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		actionChan := make(chan string, 1)

		go func() {
			<-cmd.Context().Done()
			logger.Info("Signal received, initiating shutdown.")
			select {
			case actionChan <- actionShutdown:
			default:
			}
		}()

		for {
			action, err := run(actionChan)
			if err != nil {
				return err
			}
			if action != actionRestart {
				break
			}
			logger.Info("--- Server Restarting ---")
			if config, err = LoadConfig(configPath); err != nil {
				return err
			}
		}
		logger.Info("qsa server has shut down.")
		return nil
	},
}

// run hosts the API until a shutdown or restart action arrives and returns
// that action.
func run(actionChan chan string) (string, error) {
	db, store, err := openStore(config.DatabasePath, logger)
	if err != nil {
		return "", err
	}
	defer func() {
		store.Close()
		logger.Info("Closing database connection.")
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	server, err := NewServer(config, logger, db, store, actionChan)
	if err != nil {
		return "", fmt.Errorf("failed to create server object: %w", err)
	}

	apiHttpServer := &http.Server{
		Addr:              config.Server.ApiAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting api server", "address", apiHttpServer.Addr)
		if err := apiHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var action string
	select {
	case action = <-actionChan:
	case err = <-serveErr:
		return "", fmt.Errorf("api server failed: %w", err)
	}

	logger.Info("Stopping server for " + action + "...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = apiHttpServer.Shutdown(ctx); err != nil {
		logger.Error("Api server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped.")
	return action, nil
}
