package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/jeopardy/internal/auth"
	"github.com/abrezinsky/jeopardy/internal/cache"
	"github.com/abrezinsky/jeopardy/internal/config"
	"github.com/abrezinsky/jeopardy/internal/handlers"
	"github.com/abrezinsky/jeopardy/internal/logger"
	"github.com/abrezinsky/jeopardy/internal/repository"
	"github.com/abrezinsky/jeopardy/internal/services"
	"github.com/abrezinsky/jeopardy/internal/websocket"
	"github.com/abrezinsky/jeopardy/pkg/jservice"
)

const shutdownWait = 5 * time.Second

// App holds all application dependencies
type App struct {
	log       logger.Logger
	handlers  *handlers.Handlers
	repo      *repository.Repository
	game      *services.GameService
	cacheSvc  *services.CacheService
	hub       *websocket.Hub
	closeOnce sync.Once

	mu      sync.Mutex
	baseURL string
}

// New creates and initializes a new application instance. source is the
// remote trivia client; lookups go through the SQLite and ARC caches first.
func New(cfg *config.Config, log logger.Logger, source jservice.Client, templatesFS, staticFS fs.FS, adminAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	mem, err := cache.NewARC(cfg.CacheSize)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to create category cache: %w", err)
	}

	// Initialize services
	cached := services.NewCachingSource(log, source, repo, mem, cfg.CacheTTL)
	boardService := services.NewBoardService(log, cached, services.BoardOptions{
		PoolSize:            cfg.CategoryPoolSize,
		Concurrency:         cfg.FetchConcurrency,
		ShortCategoryPolicy: cfg.ShortCategoryPolicy,
	})
	gameService := services.NewGameService(log, boardService, cfg.BuildTimeout)
	cacheService := services.NewCacheService(log, repo, mem, cfg.CacheTTL)

	if removed, err := cacheService.Prune(context.Background()); err != nil {
		log.Warn("Failed to prune clue bank", "error", err)
	} else if removed > 0 {
		log.Info("Pruned stale categories", "removed", removed)
	}

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, gameService)
	hub.Start()
	gameService.SetBroadcaster(hub)

	staticServer := handlers.NewStaticServer(staticFS)

	h, err := handlers.New(
		gameService,
		cacheService,
		templatesFS,
		staticServer,
		adminAuth,
		hub,
		log,
	)
	if err != nil {
		gameService.Close()
		hub.Stop()
		repo.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}
	h.SourceURL = source.BaseURL()

	return &App{
		log:      log,
		handlers: h,
		repo:     repo,
		game:     gameService,
		cacheSvc: cacheService,
		hub:      hub,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// NewGame starts building a fresh board in the background
func (a *App) NewGame() {
	a.game.StartNewGame()
}

// BaseURL returns the LAN URL the server announced, empty before Run
func (a *App) BaseURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.baseURL
}

// Close performs graceful shutdown of app resources. Safe to call twice.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.game.Close()
		a.hub.Stop()
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close repository", "error", err)
		}
	})
}

// Run starts the HTTP server and the first board build, and blocks until ctx
// is cancelled or the server fails.
func (a *App) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	baseURL := lanURL(getPreferredIP(realNetworkProvider{}), ln.Addr())
	a.mu.Lock()
	a.baseURL = baseURL
	a.mu.Unlock()

	a.log.Info("Server starting", "url", baseURL)
	a.log.Info("Admin URL", "url", baseURL+"/admin")

	server := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	a.game.StartNewGame()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	a.log.Info("Server shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// lanURL builds the announced URL from the preferred IP and the bound port
func lanURL(ip string, addr net.Addr) string {
	port := ""
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = fmt.Sprintf(":%d", tcp.Port)
	}
	return fmt.Sprintf("http://%s%s", ip, port)
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider lists network interfaces
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the address phones on the same network can reach.
// Private IPv4 ranges win; localhost is the fallback.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		ipStr := ip.String()
		if strings.HasPrefix(ipStr, "192.168.") ||
			strings.HasPrefix(ipStr, "10.") ||
			isPrivate172(ip) {
			return ipStr
		}
	}

	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}

// isPrivate172 checks if IP is in 172.16.0.0/12 range
func isPrivate172(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31
	}
	return false
}
