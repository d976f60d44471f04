// Package server exposes the recommender over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/spigell/shl-recommender/internal/catalog"
	"github.com/spigell/shl-recommender/internal/recommend"
)

const shutdownTimeout = 10 * time.Second

// TextExtractor turns a posting URL into query text.
type TextExtractor interface {
	Text(ctx context.Context, pageURL string) (string, error)
}

type Server struct {
	echo        *echo.Echo
	recommender *recommend.Recommender
	index       *catalog.Index
	extractor   TextExtractor
	logger      *zap.Logger
}

type healthResponse struct {
	Status   string `json:"status"`
	Items    int    `json:"items"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type recommendRequest struct {
	Query   string `json:"query"`
	URL     string `json:"url"`
	TopK    int    `json:"top_k"`
	Balance *bool  `json:"balance"`
}

type recommendResponse struct {
	Query   string             `json:"query"`
	Results []recommend.Result `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(recommender *recommend.Recommender, index *catalog.Index, extractor TextExtractor, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		recommender: recommender,
		index:       index,
		extractor:   extractor,
		logger:      logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.GET("/health", s.health)
	e.GET("/recommend", s.recommend)
	e.POST("/recommend", s.recommend)

	return s
}

// Handler exposes the underlying mux.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, listen string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(listen)
	}()

	s.logger.Info("http server started", zap.String("listen", listen))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:   "ok",
		Items:    s.index.Len(),
		Provider: s.index.Provider,
		Model:    s.index.Model,
	})
}

func (s *Server) recommend(c echo.Context) error {
	req, err := s.bindRecommendRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	query := strings.TrimSpace(req.Query)
	pageURL := strings.TrimSpace(req.URL)
	if query == "" && pageURL == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query or url is required"})
	}

	ctx := c.Request().Context()

	if query == "" {
		if s.extractor == nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "url extraction is not enabled"})
		}

		query, err = s.extractor.Text(ctx, pageURL)
		if err != nil {
			s.logger.Warn("url extraction failed", zap.String("url", pageURL), zap.Error(err))
			return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to extract text from url"})
		}
	}

	balance := true
	if req.Balance != nil {
		balance = *req.Balance
	}

	results, err := s.recommender.Recommend(ctx, query, recommend.ClampTopK(req.TopK), balance)
	if err != nil {
		s.logger.Error("recommendation failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "recommendation failed"})
	}

	return c.JSON(http.StatusOK, recommendResponse{Query: query, Results: results})
}

// bindRecommendRequest reads the JSON body on POST and query parameters on
// GET. Unparsable query parameters fall back to defaults instead of failing
// the request.
func (s *Server) bindRecommendRequest(c echo.Context) (*recommendRequest, error) {
	req := new(recommendRequest)

	if c.Request().Method == http.MethodPost {
		if err := c.Bind(req); err != nil {
			return nil, err
		}
		return req, nil
	}

	req.Query = c.QueryParam("query")
	req.URL = c.QueryParam("url")
	if raw := c.QueryParam("top_k"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			req.TopK = v
		}
	}
	if raw := c.QueryParam("balance"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			req.Balance = &v
		}
	}

	return req, nil
}
