package api

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	api := s.router.Group("/api/v1")
	{
		// Signed ceremony requests
		ceremony := api.Group("/ceremony")
		{
			ceremony.POST("/join", s.handleJoin)
			ceremony.POST("/start", s.handleStart)
			ceremony.POST("/commit", s.handleCommit)
			ceremony.POST("/reveal", s.handlePublishReveal)

			ceremony.GET("/params", s.handleGetParams)
			ceremony.GET("/phase", s.handleGetPhase)
			ceremony.GET("/participants", s.handleGetParticipants)
			ceremony.GET("/participants/:index", s.handleGetParticipantAt)
			ceremony.GET("/coordinator/:identity", s.handleIsCoordinator)
			ceremony.GET("/records/:identity", s.handleGetRecord)
			ceremony.GET("/transcript", s.handleGetTranscript)
			ceremony.GET("/verify", s.handleVerifyTranscript)
			ceremony.POST("/hash", s.handleHash)
		}

		// Request authentication state
		auth := api.Group("/auth")
		{
			auth.GET("/nonce/:identity", s.handleGetNonce)
		}
	}
}
