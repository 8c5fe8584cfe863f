package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"souvenir/docs" //this is required to generate swagger docs
	"souvenir/internal/auth"
	"souvenir/internal/bookgen"
	"souvenir/internal/domain/books"
	"souvenir/internal/domain/carts"
	"souvenir/internal/domain/orders"
	"souvenir/internal/domain/payments"
	"souvenir/internal/domain/users"
	"souvenir/internal/gateway"
	"souvenir/internal/mailer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         storage
	logger        *zap.SugaredLogger
	mailer        mailer.Client
	authenticator auth.Authenticator
	gateways      *gateway.Manager
	books         *bookgen.Service
}

// storage groups the per-domain repositories behind their interfaces.
type storage struct {
	Users    users.Store
	Carts    carts.Store
	Orders   orders.Store
	Payments payments.Store
	Books    books.Store
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	frontendURL string
	mail        mailConfig
	auth        authConfig
	payment     paymentConfig
	minio       minioConfig
	// flat shipping cost in FCFA applied to every non-empty cart
	shippingCost int64
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	exp    time.Duration
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	smtp      smtpConfig
	// how long a password reset token stays valid
	resetExp time.Duration
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

type paymentConfig struct {
	// hosted payment pages for redirect methods
	cardCheckoutURL   string
	paypalCheckoutURL string
	returnURL         string
	// sandbox only: settle mobile money payments automatically after this
	// delay, through the same path the provider callback uses
	sandboxSettle      bool
	sandboxSettleDelay time.Duration
}

type minioConfig struct {
	endpoint  string
	accessKey string
	secretKey string
	bucket    string
	useSSL    bool
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signupHandler)
			r.Post("/signin", app.signinHandler)
			r.Post("/forgot-password", app.forgotPasswordHandler)
			r.Post("/reset-password", app.resetPasswordHandler)
			r.With(app.AuthTokenMiddleware).Get("/verify", app.verifySessionHandler)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.getCartHandler)
			r.Post("/add", app.addCartItemHandler)
			r.Put("/{itemID}", app.updateCartItemHandler)
			r.Delete("/{itemID}", app.removeCartItemHandler)
			r.Delete("/clear", app.clearCartHandler)
			r.Get("/summary", app.cartSummaryHandler)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.createOrderHandler)
			r.Get("/", app.listOrdersHandler)
			r.Get("/{orderID}", app.getOrderHandler)
			r.Post("/{orderID}/cancel", app.cancelOrderHandler)
			r.With(app.RequireRole(users.RoleAdmin, users.RoleManager)).
				Put("/{orderID}/status", app.updateOrderStatusHandler)
		})

		r.Route("/payments", func(r chi.Router) {
			// providers notify us here, no session to present
			r.Post("/callback", app.paymentCallbackHandler)
			// polled by the storefront while the provider confirms, the
			// transaction id is the only credential
			r.Get("/status/{transactionID}", app.paymentStatusHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/initiate", app.initiatePaymentHandler)
				r.Get("/history", app.paymentHistoryHandler)
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/generate", app.generateBookHandler)
			r.Get("/download/{bookID}", app.downloadBookHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
