package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"souvenir/internal/auth"
	"souvenir/internal/bookgen"
	"souvenir/internal/db"
	"souvenir/internal/domain/books"
	"souvenir/internal/domain/carts"
	"souvenir/internal/domain/orders"
	"souvenir/internal/domain/payments"
	"souvenir/internal/domain/users"
	"souvenir/internal/gateway"
	"souvenir/internal/mailer"
	"souvenir/internal/migrate"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder // This adds color to log levels (INFO, WARN, ERROR)

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

func envInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %d\n", key, fallback)
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %t\n", key, fallback)
		return fallback
	}
	return parsed
}

var version = "1.0.0"

//	@title			Tchat Souvenir API
//	@description	API for Tchat Souvenir, personalized memory books printed from your conversations.

//	@contact.name	API Support
//	@contact.email	support@tchatsouvenir.sn

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    envInt("DB_MAX_CONNS", 30),
			maxIdleTime: os.Getenv("DB_MAX_IDLE_TIME"),
		},
		mail: mailConfig{
			fromEmail: os.Getenv("SMTP_FROM_EMAIL"),
			resetExp:  time.Hour * 24, // reset link lives one day
			smtp: smtpConfig{
				host:     os.Getenv("SMTP_HOST"),
				port:     envInt("SMTP_PORT", 587),
				username: os.Getenv("SMTP_USERNAME"),
				password: os.Getenv("SMTP_PASSWORD"),
			},
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				exp:    time.Hour * 24 * 3, // 3 days
				iss:    "TchatSouvenir",
			},
		},
		payment: paymentConfig{
			cardCheckoutURL:    os.Getenv("CARD_CHECKOUT_URL"),
			paypalCheckoutURL:  os.Getenv("PAYPAL_CHECKOUT_URL"),
			returnURL:          os.Getenv("PAYMENT_RETURN_URL"),
			sandboxSettle:      envBool("PAYMENT_SANDBOX_SETTLE", false),
			sandboxSettleDelay: time.Duration(envInt("PAYMENT_SANDBOX_SETTLE_SECONDS", 5)) * time.Second,
		},
		minio: minioConfig{
			endpoint:  os.Getenv("MINIO_ENDPOINT"),
			accessKey: os.Getenv("MINIO_ACCESS_KEY"),
			secretKey: os.Getenv("MINIO_SECRET_KEY"),
			bucket:    os.Getenv("MINIO_BUCKET"),
			useSSL:    envBool("MINIO_USE_SSL", false),
		},
		shippingCost: int64(envInt("SHIPPING_COST_FCFA", 1000)),
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(
		cfg.db.addr,
		int32(cfg.db.maxConns),
		cfg.db.maxIdleTime,
	)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	if err := migrate.Apply(context.Background(), pool); err != nil {
		logger.Fatal(err)
	}
	logger.Info("database schema up to date")

	// storage
	bookRepo, err := books.NewRepository(pool, os.Getenv("BOOK_ID_SALT"))
	if err != nil {
		logger.Fatal(err)
	}
	store := storage{
		Users:    users.NewRepository(pool),
		Carts:    carts.NewRepository(pool),
		Orders:   orders.NewRepository(pool, orders.NewReferenceGenerator(os.Getenv("ORDER_REF_SECRET"))),
		Payments: payments.NewRepository(pool),
		Books:    bookRepo,
	}

	// book artifacts live in MinIO
	objectStore, err := bookgen.NewMinioStore(
		cfg.minio.endpoint,
		cfg.minio.accessKey,
		cfg.minio.secretKey,
		cfg.minio.bucket,
		cfg.minio.useSSL,
	)
	if err != nil {
		logger.Fatal(err)
	}
	if err := objectStore.EnsureBucket(context.Background()); err != nil {
		logger.Fatal(err)
	}
	bookService := bookgen.NewService(objectStore, logger)

	smtpClient, err := mailer.NewSMTPClient(
		cfg.mail.smtp.host,
		cfg.mail.smtp.port,
		cfg.mail.smtp.username,
		cfg.mail.smtp.password,
		cfg.mail.fromEmail,
	)
	if err != nil {
		logger.Fatal(err)
	}

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.iss,
		cfg.auth.token.iss,
		cfg.auth.token.exp,
	)

	// Payment providers
	gateways := gateway.NewManager()
	gateways.Register("mobile_money", gateway.NewMobileMoneyAdapter(os.Getenv("MOBILE_MONEY_MERCHANT_CODE")))
	gateways.Register("card", gateway.NewRedirectAdapter("card", cfg.payment.cardCheckoutURL, cfg.payment.returnURL))
	gateways.Register("paypal", gateway.NewRedirectAdapter("paypal", cfg.payment.paypalCheckoutURL, cfg.payment.returnURL))

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		mailer:        smtpClient,
		authenticator: jwtAuthenticator,
		gateways:      gateways,
		books:         bookService,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		stat := pool.Stat()
		return map[string]any{
			"total_conns":    stat.TotalConns(),
			"idle_conns":     stat.IdleConns(),
			"acquired_conns": stat.AcquiredConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
