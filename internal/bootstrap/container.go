package bootstrap

import (
	"context"
	"log"
	"time"

	"smart-reader-be/internal/config"
	"smart-reader-be/internal/controller"
	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/internal/repository/cache"
	"smart-reader-be/internal/repository/memory"
	"smart-reader-be/internal/repository/unitofwork"
	"smart-reader-be/internal/service"
	"smart-reader-be/internal/websocket"
	"smart-reader-be/pkg/document"
	pktNats "smart-reader-be/pkg/nats"
	"smart-reader-be/pkg/overlay"
	"smart-reader-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const annotationTopic = "annotations.changed"

type Container struct {
	// Controllers
	ReferenceController   controller.IReferenceController
	ReaderController      controller.IReaderController
	DiagnosticsController controller.IDiagnosticsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	rdb := connectRedis(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var events service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			events = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var annotationCache *cache.AnnotationCache
	var hubClient redis.UniversalClient
	if rdb != nil {
		annotationCache = cache.NewAnnotationCache(rdb, cfg.Reader.AnnotationCache)
		hubClient = rdb
	}

	wsLogger := logger.NewIsolatedLogger("logs/reader_events.log")
	wsHub := websocket.NewHub(hubClient, wsLogger)
	c.WebSocketHub = wsHub

	renderer, err := overlay.NewRenderer()
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize renderer: %v", err)
	}
	c.closers = append(c.closers, func() { _ = renderer.Close() })

	opts, err := readerOptions(cfg.Reader)
	if err != nil {
		log.Fatalf("[FATAL] Invalid reader configuration: %v", err)
	}

	sessions := memory.NewReaderSessionRepository(cfg.Reader.SessionTTL)
	sessions.OnEvicted(func(s *store.ReaderSession) {
		sysLogger.Info("READER", "Session evicted", map[string]interface{}{
			"session_id":   s.ID,
			"reference_id": s.ReferenceID,
			"idle":         time.Since(s.LastSeen()).String(),
		})
	})

	loader := &document.PDFLoader{MaxPages: cfg.Reader.MaxPdfPages}

	// 4. Services
	docStore := service.NewAnnotationDocumentStore(uowFactory, annotationCache, sysLogger)
	publisherService := service.NewPublisherService(annotationTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, annotationTopic, wsHub, events, sysLogger)

	referenceService := service.NewReferenceService(uowFactory, loader, annotationCache, cfg.Reader.MaxPdfBytes, sysLogger)
	readerService := service.NewReaderService(
		uowFactory,
		sessions,
		docStore,
		loader,
		renderer,
		publisherService,
		opts,
		sysLogger,
	)

	// 5. Controllers
	c.ReferenceController = controller.NewReferenceController(referenceService, cfg.Reader.MaxPdfBytes)
	c.ReaderController = controller.NewReaderController(readerService, wsHub, sysLogger)
	c.DiagnosticsController = controller.NewDiagnosticsController(sysLogger, sessions)

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Redis unavailable, running without cache and cross-instance fan-out: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func readerOptions(cfg config.ReaderConfig) (overlay.Options, error) {
	mode, err := overlay.ParseEraserMode(cfg.EraserMode)
	if err != nil {
		return overlay.Options{}, err
	}
	opts := overlay.DefaultOptions()
	opts.MinZoom = cfg.MinZoom
	opts.MaxZoom = cfg.MaxZoom
	opts.ZoomStep = cfg.ZoomStep
	opts.DefaultZoom = cfg.DefaultZoom
	opts.EraserMode = mode
	opts.Styles = overlay.Styles{
		Pen:       overlay.StrokeStyle{Width: cfg.PenWidth, Alpha: 1},
		Highlight: overlay.StrokeStyle{Width: cfg.HighlightWidth, Alpha: cfg.HighlightAlpha},
		Eraser:    overlay.StrokeStyle{Width: cfg.EraserWidth, Alpha: 1, Erase: true},
		FontSize:  cfg.FontSize,
	}
	return opts, nil
}
