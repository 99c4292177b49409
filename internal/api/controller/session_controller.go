package controller

import (
	"ctchen222/tictactoe-hub/internal/api/response"
	"ctchen222/tictactoe-hub/internal/api/service"

	"github.com/gin-gonic/gin"
)

// SessionController handles session-related HTTP requests.
type SessionController struct {
	sessionService service.SessionService
}

// NewSessionController creates a new SessionController.
func NewSessionController(sessionService service.SessionService) *SessionController {
	return &SessionController{
		sessionService: sessionService,
	}
}

// Get handles the session snapshot endpoint.
func (sc *SessionController) Get(c *gin.Context) {
	session, err := sc.sessionService.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, session)
}

// Health reports that the process is serving.
func (sc *SessionController) Health(c *gin.Context) {
	response.SuccessResponseContent(c, "ok")
}
