package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/ports"
	customMiddleware "github.com/provia/proofbridge/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
	VerifyCacheTTL time.Duration
}

type ServerDeps struct {
	SignatureService ports.SignatureService
	SecretProvider   ports.SecretProvider
	ProofService     ports.ProofService
	RelayService     ports.RelayService
	Deliveries       ports.DeliveryRepository
	Cache            ports.Cache
	HealthCheckers   []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	signatures     ports.SignatureService
	secrets        ports.SecretProvider
	proofSvc       ports.ProofService
	relaySvc       ports.RelayService
	deliveries     ports.DeliveryRepository
	cache          ports.Cache
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		signatures:     deps.SignatureService,
		secrets:        deps.SecretProvider,
		proofSvc:       deps.ProofService,
		relaySvc:       deps.RelayService,
		deliveries:     deps.Deliveries,
		cache:          deps.Cache,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.SignatureService,
			deps.Cache,
			serverConfig.VerifyCacheTTL,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
			GetAuthOutcomes(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
