package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/seechee6/Order-Me/internal/announcements"
	"github.com/seechee6/Order-Me/internal/cache"
	"github.com/seechee6/Order-Me/internal/cart"
	"github.com/seechee6/Order-Me/internal/chat"
	"github.com/seechee6/Order-Me/internal/config"
	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/feedback"
	"github.com/seechee6/Order-Me/internal/identity"
	"github.com/seechee6/Order-Me/internal/messaging"
	"github.com/seechee6/Order-Me/internal/orders"
	"github.com/seechee6/Order-Me/internal/profile"
	"github.com/seechee6/Order-Me/internal/restaurants"
	"github.com/seechee6/Order-Me/internal/session"
	"github.com/seechee6/Order-Me/internal/telemetry"
	"github.com/seechee6/Order-Me/internal/wishlist"
)

const serviceName = "order-me-api"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	var store docstore.Store
	if cfg.PostgresURL == "" {
		logger.Warn("POSTGRES_URL not set, using in-memory document store")
		store = docstore.NewMemory()
	} else {
		db, err := telemetry.OpenDB(ctx, "postgres", cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		pg := docstore.NewPostgres(db, logger)
		listener := pq.NewListener(cfg.PostgresURL, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error("document change listener event", "event", ev, "error", err)
			}
		})
		go func() {
			if err := pg.Listen(ctx, listener); err != nil {
				logger.Error("document change listener stopped", "error", err)
			}
		}()
		store = pg
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}

	var publisher feedback.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, messaging.FeedbackSubmitted)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	ratings := cache.NewRatings(rdb, 0)
	profiles := profile.NewService(store)

	identities := identity.NewService(store,
		identity.NewTokenManager([]byte(cfg.JWTSecret), cfg.TokenTTL),
		cache.NewDenylist(rdb),
		profiles,
		logger,
	)
	sessions := session.New(identities, profiles, store, logger)
	sessions.Init()
	defer sessions.Teardown()

	restaurantService := restaurants.NewService(restaurants.NewRepository(store), ratings, logger)
	cartService := cart.NewService(store, logger, cart.WithAvailability(restaurantService))
	orderService, err := orders.NewService(store, cartService, profiles, restaurantService, logger)
	if err != nil {
		logger.Error("failed to create order service", "error", err)
		os.Exit(1)
	}
	chatService := chat.NewService(store, logger)
	wishlistService := wishlist.NewService(profiles, logger)
	announcementService := announcements.NewService(store, wishlistService, cache.NewLastViewed(rdb), logger)
	feedbackService := feedback.NewService(store, publisher, cfg.PublicBaseURL, logger)

	auth := identity.NewAuthenticator(identities, logger)
	identityHandler := identity.NewHandler(identities, logger)
	profileHandler := profile.NewHandler(profiles, sessions, logger)
	restaurantHandler := restaurants.NewHandler(restaurantService, logger)
	cartHandler := cart.NewHandler(cartService, restaurantService, logger)
	orderHandler := orders.NewHandler(orderService, logger)
	chatHandler := chat.NewHandler(chatService, logger)
	wishlistHandler := wishlist.NewHandler(wishlistService, restaurantService, logger)
	announcementHandler := announcements.NewHandler(announcementService, restaurantService, logger)
	feedbackHandler := feedback.NewHandler(feedbackService, orderService, logger)

	route := telemetry.WithHTTPRoute
	user := func(h http.HandlerFunc) http.HandlerFunc { return route(auth.Require(h)) }
	vendor := func(h http.HandlerFunc) http.HandlerFunc { return route(auth.RequireVendor(h)) }

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	mux.HandleFunc("POST /auth/signup", route(identityHandler.HandleSignUp))
	mux.HandleFunc("POST /auth/signin", route(identityHandler.HandleSignIn))
	mux.HandleFunc("POST /auth/signout", user(identityHandler.HandleSignOut))

	mux.HandleFunc("GET /profile", user(profileHandler.HandleGet))
	mux.HandleFunc("PATCH /profile", user(profileHandler.HandleUpdate))
	mux.HandleFunc("POST /profile/addresses", user(profileHandler.HandleAddAddress))
	mux.HandleFunc("POST /profile/addresses/{index}/primary", user(profileHandler.HandleSetPrimary))
	mux.HandleFunc("DELETE /profile/addresses/{index}", user(profileHandler.HandleRemoveAddress))

	mux.HandleFunc("GET /restaurants", route(restaurantHandler.HandleList))
	mux.HandleFunc("GET /restaurants/{name}", route(restaurantHandler.HandleGet))
	mux.HandleFunc("GET /restaurants/{name}/menu", route(restaurantHandler.HandleMenu))
	mux.HandleFunc("GET /restaurants/{name}/feedback", route(feedbackHandler.HandleList))

	mux.HandleFunc("GET /cart", user(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", user(cartHandler.HandleAddItem))
	mux.HandleFunc("PATCH /cart/items/{id}", user(cartHandler.HandleSetQuantity))
	mux.HandleFunc("DELETE /cart/items/{id}", user(cartHandler.HandleRemove))
	mux.HandleFunc("DELETE /cart", user(cartHandler.HandleClear))
	mux.HandleFunc("GET /cart/stream", user(cartHandler.HandleStream))

	mux.HandleFunc("POST /orders", user(orderHandler.HandleCheckout))
	mux.HandleFunc("GET /orders", user(orderHandler.HandleListMine))
	mux.HandleFunc("GET /orders/history", user(orderHandler.HandleHistory))
	mux.HandleFunc("GET /orders/stream", user(orderHandler.HandleStreamMine))
	mux.HandleFunc("GET /orders/{id}", user(orderHandler.HandleGet))
	mux.HandleFunc("POST /orders/{id}/reorder", user(orderHandler.HandleBuyAgain))
	mux.HandleFunc("POST /orders/{id}/feedback", user(feedbackHandler.HandleSubmit))
	mux.HandleFunc("GET /orders/{id}/feedback/qr", user(feedbackHandler.HandleQR))

	mux.HandleFunc("GET /chat/rooms", user(chatHandler.HandleRooms))
	mux.HandleFunc("POST /chat/rooms", user(chatHandler.HandleOpen))
	mux.HandleFunc("GET /chat/rooms/{id}/messages", user(chatHandler.HandleMessages))
	mux.HandleFunc("POST /chat/rooms/{id}/messages", user(chatHandler.HandleSend))
	mux.HandleFunc("GET /chat/rooms/{id}/stream", user(chatHandler.HandleStream))

	mux.HandleFunc("GET /wishlist", user(wishlistHandler.HandleList))
	mux.HandleFunc("POST /wishlist/{name}", user(wishlistHandler.HandleToggle))

	mux.HandleFunc("GET /announcements", user(announcementHandler.HandleFeed))
	mux.HandleFunc("GET /announcements/unread", user(announcementHandler.HandleUnread))

	mux.HandleFunc("POST /vendor/restaurant", vendor(restaurantHandler.HandleRegister))
	mux.HandleFunc("GET /vendor/restaurant", vendor(restaurantHandler.HandleMine))
	mux.HandleFunc("PATCH /vendor/restaurant/open", vendor(restaurantHandler.HandleSetOpen))
	mux.HandleFunc("POST /vendor/menu", vendor(restaurantHandler.HandleAddItem))
	mux.HandleFunc("PUT /vendor/menu/{id}", vendor(restaurantHandler.HandleUpdateItem))
	mux.HandleFunc("DELETE /vendor/menu/{id}", vendor(restaurantHandler.HandleDeleteItem))
	mux.HandleFunc("GET /vendor/orders", vendor(orderHandler.HandleListRestaurant))
	mux.HandleFunc("GET /vendor/orders/stream", vendor(orderHandler.HandleStreamRestaurant))
	mux.HandleFunc("POST /vendor/orders/{id}/advance", vendor(orderHandler.HandleAdvance))
	mux.HandleFunc("POST /vendor/orders/{id}/cancel", vendor(orderHandler.HandleCancel))
	mux.HandleFunc("POST /vendor/orders/{id}/proof", vendor(orderHandler.HandleDeliveryProof))
	mux.HandleFunc("GET /vendor/announcements", vendor(announcementHandler.HandleMine))
	mux.HandleFunc("POST /vendor/announcements", vendor(announcementHandler.HandleCreate))
	mux.HandleFunc("DELETE /vendor/announcements/{id}", vendor(announcementHandler.HandleDelete))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     corsHandler.Handler(telemetry.Handler(mux, serviceName)),
		ReadTimeout: 10 * time.Second,
		// Streams clear their own write deadline.
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api", "port", cfg.Port, "version", cfg.ServiceVersion)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
