package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

// ErrorEnvelope is the body of every non-2xx answer.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
