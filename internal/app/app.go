// Package app assembles services, handlers and background workers from config.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"

	"ms-venue-booking/internal/account"
	account_api "ms-venue-booking/internal/account/account_api"
	accountdb "ms-venue-booking/internal/account/db"
	"ms-venue-booking/internal/analytics"
	analytics_api "ms-venue-booking/internal/analytics/api"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/beo"
	beo_api "ms-venue-booking/internal/beo/beo_api"
	beodb "ms-venue-booking/internal/beo/db"
	"ms-venue-booking/internal/beo/sheet"
	"ms-venue-booking/internal/calendar"
	calendar_api "ms-venue-booking/internal/calendar/calendar_api"
	"ms-venue-booking/internal/catalog"
	catalog_api "ms-venue-booking/internal/catalog/catalog_api"
	catalogdb "ms-venue-booking/internal/catalog/db"
	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/customer"
	customer_api "ms-venue-booking/internal/customer/customer_api"
	customerdb "ms-venue-booking/internal/customer/db"
	"ms-venue-booking/internal/kafka"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/order"
	orderdb "ms-venue-booking/internal/order/db"
	"ms-venue-booking/internal/order/order_api"
	orderredis "ms-venue-booking/internal/order/redis"
	"ms-venue-booking/internal/router"
	"ms-venue-booking/internal/schedule"
	scheduledb "ms-venue-booking/internal/schedule/db"
	schedule_api "ms-venue-booking/internal/schedule/schedule_api"
	"ms-venue-booking/internal/sse"
	"ms-venue-booking/internal/storage"
	"ms-venue-booking/internal/venue"
	venuedb "ms-venue-booking/internal/venue/db"
	venue_api "ms-venue-booking/internal/venue/venue_api"
)

type App struct {
	Router  http.Handler
	Emitter *sse.CalendarEventEmitter

	Orders   *order.OrderService
	Accounts *account.Service

	log      *logger.Logger
	producer *kafka.Producer
	consumer *kafka.Consumer
}

// New wires everything on top of an open database and Redis client.
func New(ctx context.Context, cfg *config.Config, bunDB *bun.DB, rdb *redis.Client, log *logger.Logger) (*App, error) {
	a := &App{Emitter: sse.NewCalendarEventEmitter(), log: log}

	blobs, err := storage.NewLocal(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	authn, err := auth.NewAuthenticator(ctx, cfg.Auth, log)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	var orderEvents order.EventPublisher = a.Emitter
	var beoEvents beo.EventPublisher = kafka.BeoEvents{Publisher: kafka.Nop{}}
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.OrderEvents, cfg.Kafka.Topics.BeoEvents}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		a.producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		orderEvents = kafka.OrderEvents{Publisher: a.producer, Topic: cfg.Kafka.Topics.OrderEvents}
		beoEvents = kafka.BeoEvents{Publisher: a.producer, Topic: cfg.Kafka.Topics.BeoEvents}
		// every instance needs every event for its own calendar viewers
		a.consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderEvents, calendarGroup(), log)
		log.Info("KAFKA", "Kafka producer and calendar consumer initialized")
	} else {
		log.Warn("KAFKA", "Kafka disabled, order events go straight to calendar viewers")
	}

	orderDB := orderdb.New(bunDB)
	venueDB := venuedb.New(bunDB)

	a.Orders = order.NewOrderService(orderDB, orderredis.NewRedis(rdb, cfg.Redis, log), orderEvents, blobs, log)
	a.Accounts = account.NewService(accountdb.New(bunDB), cfg.Auth, log)
	calendarSvc := calendar.NewService(orderDB, venueDB, log)
	beoSvc := beo.NewService(beodb.New(bunDB), blobs, beoEvents, sheet.NewRenderer(cfg.Sheet, cfg.Server.PublicBaseURL), log)

	handlers := router.Handlers{
		Account:   account_api.NewHandler(a.Accounts, log),
		Customers: customer_api.NewHandler(customer.NewService(customerdb.New(bunDB), log), log),
		Venues:    venue_api.NewHandler(venue.NewService(venueDB, blobs, cfg.Storage.PhotoMaxWidth, log), cfg.Storage.MaxUploadSize, log),
		Catalog:   catalog_api.NewHandler(catalog.NewService(catalogdb.New(bunDB), log), log),
		Orders:    order_api.NewHandler(a.Orders, cfg.Storage.MaxUploadSize, log),
		Schedules: schedule_api.NewHandler(schedule.NewService(scheduledb.New(bunDB), log), log),
		Beos:      beo_api.NewHandler(beoSvc, cfg.Storage.MaxUploadSize, log),
		Calendar:  calendar_api.NewHandler(calendarSvc, a.Emitter, log),
		Reports:   analytics_api.NewHandler(analytics.NewService(calendarSvc, analytics.NewDB(bunDB), log), log),
	}
	a.Router = router.New(handlers, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		FilesRoot:      blobs.Root(),
		FilesURL:       cfg.Storage.BaseURL,
		Authenticate:   authn.Middleware,
	}, log)
	return a, nil
}

// Start runs background workers until ctx ends.
func (a *App) Start(ctx context.Context) {
	if a.consumer == nil {
		return
	}
	go func() {
		if err := a.consumer.ConsumeOrderEvents(ctx, a.Emitter.Emit); err != nil {
			a.log.Error("KAFKA", fmt.Sprintf("Calendar consumer stopped: %v", err))
		}
	}()
}

func (a *App) Close() {
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.log.Error("KAFKA", fmt.Sprintf("Failed to close consumer: %v", err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func calendarGroup() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "venue-calendar-" + host
}
