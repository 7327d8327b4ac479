package routes

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mobiclear/mobiclear/internal/agreement"
	"github.com/mobiclear/mobiclear/internal/config"
	"github.com/mobiclear/mobiclear/internal/guarantee"
	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/messaging"
	"github.com/mobiclear/mobiclear/internal/middleware"
	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/notification"
	"github.com/mobiclear/mobiclear/internal/offering"
	"github.com/mobiclear/mobiclear/internal/schedule"
	"github.com/mobiclear/mobiclear/internal/signing"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. The node hosts
// all three roles — consumer, operator and provider — on an in-process bus;
// the shared record store is the only cross-node collaborator.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Parties and keys
	consumer := model.Party(d.Cfg.ConsumerParty)
	operator := model.Party(d.Cfg.OperatorParty)
	provider := model.Party(d.Cfg.ProviderParty)

	keys := signing.NewKeyring()
	consumerKey, err := signing.NewKeypair(consumer)
	if err != nil {
		return err
	}
	operatorKey, err := signing.NewKeypair(operator)
	if err != nil {
		return err
	}
	providerKey, err := signing.NewKeypair(provider)
	if err != nil {
		return err
	}
	keys.RegisterKeypair(consumerKey)
	keys.RegisterKeypair(operatorKey)
	keys.RegisterKeypair(providerKey)

	// Record store
	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB, keys)
	} else {
		store = ledger.NewInMemory(keys)
	}

	// Responders on the in-process bus
	bus := messaging.NewBus()
	notifier := notification.NewLoggerNotifier(d.Logger)

	guarantor := guarantee.NewGuarantor(store, operatorKey, notifier, d.Logger)
	bus.Register(operator, guarantor.Handle)

	props := map[string]string{
		schedule.PropTrustedGuarantors: d.Cfg.TrustedGuarantors,
		schedule.PropOfferValidity:     strconv.Itoa(d.Cfg.OfferValidityMinutes),
	}
	fleet := offering.MultiSource{
		schedule.NewAirline(),
		schedule.NewFerry(),
		schedule.NewTrain(),
		schedule.NewTaxi(),
		schedule.NewBikeRental(),
		schedule.NewCarRental(),
	}
	oracle := offering.NewService(fleet, props, providerKey, d.Logger)
	providerSide := agreement.NewProvider(providerKey, oracle, notifier, d.Logger)
	bus.Register(provider, providerSide.Handle)

	// Consumer-side services and handlers
	requester := guarantee.NewRequester(store, consumerKey, bus, d.Logger)
	acceptor := agreement.NewAcceptor(store, consumerKey, bus, d.Logger)

	guaranteeHandler := guarantee.NewHandler(requester, operator, store)
	agreementHandler := agreement.NewHandler(acceptor, bus, consumer, []model.Party{provider})

	// API routes
	api := app.Group("/api/v1")
	RegisterAccountRoutes(api, guaranteeHandler)
	RegisterGuaranteeRoutes(api, guaranteeHandler)
	RegisterOfferRoutes(api, agreementHandler)

	return nil
}
