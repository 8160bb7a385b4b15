package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	// Platform webhooks carry their own body signature; the API auth scheme
	// does not apply here.
	s.echo.POST("/webhooks/pageproof", s.handlePageProofWebhook, s.middleware.Webhook.VerifyBody())

	api := s.echo.Group("/api/v1")
	api.Use(s.middleware.HMAC.Require())

	api.POST("/proofs", s.createProof)
	api.GET("/proofs/:id", s.getProof)
	api.GET("/collections", s.listCollections)

	admin := api.Group("/admin")
	admin.POST("/secret/rotate", s.rotateSecret)
	admin.GET("/deliveries", s.listDeliveries)
	admin.GET("/cache/stats", s.cacheStats)
}
