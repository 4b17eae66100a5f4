package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"advent_calendar/internal/config"
	"advent_calendar/internal/lib/logger/sl"
	mw "advent_calendar/internal/middleware"
	httprouters "advent_calendar/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	cfg     config.HTTPConfig
	// uploadsDir локальная папка загрузок; пусто, если файлы лежат в S3
	uploadsDir string
	uploadsURL string
}

func New(log *slog.Logger, cfg config.HTTPConfig, uploadsDir, uploadsURL string, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	e.Use(session.Middleware(store))

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(mw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, sl.Err(v.Error))
			}

			log.Info("request", attrs...)

			return nil
		},
	}))

	mux := http.NewServeMux()
	err := statsviz.Register(mux)
	if err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:          mux,
		log:        log,
		e:          e,
		routers:    routers,
		cfg:        cfg,
		uploadsDir: uploadsDir,
		uploadsURL: uploadsURL,
	}
}

// Echo нужен тестам, чтобы гонять запросы через httptest.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.Host, s.cfg.Port)
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	const op = "http.Server.Stop"

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	optCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.log.Info("stopping http server", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// jwtConfig токен проверяется сервисом авторизации: подпись, срок и издатель.
func (s *Server) jwtConfig() echojwt.Config {
	return echojwt.Config{
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return s.routers.AuthService.Verify(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		},
	}
}

func (s *Server) BuildRouters() {
	s.e.GET("/", s.routers.RoadmapPage)
	s.e.GET("/gifts/:number", s.routers.GiftPage)
	s.e.GET("/health", s.routers.HealthCheck)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if s.uploadsDir != "" {
		prefix := "/" + strings.Trim(s.uploadsURL, "/")
		if prefix == "/" {
			prefix = "/uploads"
		}
		s.e.Static(prefix, s.uploadsDir)
	}

	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	swagger := s.e.Group("/swag")
	{
		swagger.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	api := s.e.Group("/api/v1")
	{
		api.POST("/login", s.routers.Login)
		api.GET("/roadmap", s.routers.Roadmap)
		api.GET("/gifts/:number", s.routers.PublicGift)

		admin := api.Group("/admin")
		admin.Use(echojwt.WithConfig(s.jwtConfig()))
		{
			admin.GET("/gifts", s.routers.ListGifts)
			admin.POST("/gifts", s.routers.CreateGift)
			admin.GET("/gifts/:id", s.routers.GetGift)
			admin.PATCH("/gifts/:id", s.routers.UpdateGift)
			admin.DELETE("/gifts/:id", s.routers.DeleteGift)

			admin.POST("/gifts/:id/uploads", s.routers.UploadGiftAsset)
			admin.PUT("/gifts/:id/memory-photo", s.routers.SetMemoryPhoto)
			admin.DELETE("/gifts/:id/memory-photo", s.routers.DeleteMemoryPhoto)

			admin.GET("/gifts/:id/content", s.routers.GetContent)
			admin.PUT("/gifts/:id/content", s.routers.SaveContent)
			admin.POST("/gifts/:id/content/autosave", s.routers.AutosaveContent)
			admin.GET("/gifts/:id/content/status", s.routers.ContentStatus)
			admin.GET("/gifts/:id/preview", s.routers.PreviewGift)
			admin.POST("/gifts/:id/editor/upload", s.routers.EditorUpload)

			admin.POST("/preview", s.routers.PreviewBlocks)

			admin.GET("/editor/forms", s.routers.EditorPalette)
			admin.POST("/editor/new", s.routers.EditorNewBlock)
			admin.POST("/editor/describe", s.routers.EditorDescribe)
			admin.POST("/editor/apply", s.routers.EditorApply)
			admin.POST("/editor/items", s.routers.EditorItems)
			admin.POST("/editor/list", s.routers.EditorList)

			admin.POST("/music/scrape", s.routers.ScrapeTrack)
			admin.POST("/music/enrich", s.routers.EnrichBlock)
		}
	}
}
