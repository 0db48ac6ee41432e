package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/omondijeff/errorlytic/internal/config"
	"github.com/omondijeff/errorlytic/internal/services"
	"github.com/omondijeff/errorlytic/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	fm, err := storage.NewFileManager(cfg.DataDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("init file manager: %w", err)
	}

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	pricing := services.NewPricing(cfg.DefaultPartsPrice)
	analyzer := services.NewAnalyzer(
		store,
		fm,
		services.NewParser(),
		services.NewClassifier(cfg.DefaultFaultCost),
		services.NewEnricher(services.NewOpenAIService(cfg), cfg.EnrichTimeout),
		services.NewSynthesizer(),
		services.NewQuoteEngine(pricing),
	)
	pdfSvc := services.NewPDFService()
	shareSvc := services.NewShareService(cfg.BaseURL)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS(cfg.AllowedOrigins))

	api := NewAPI(cfg, fm, store, analyzer, pricing, pdfSvc, shareSvc)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
