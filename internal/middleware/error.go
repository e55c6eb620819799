package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebox/backend/internal/logging"
)

// GenericErrorMessage is the only error text ever returned to clients for
// internal failures.
const GenericErrorMessage = "An unexpected error occurred."

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Recovery turns a panic in any handler into the JSON error envelope. The
// panic value is logged, never returned.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Ctx(c.Request.Context()).Error().
					Interface("panic", rec).
					Str("path", c.Request.URL.Path).
					Msg("recovered from panic")
				AbortWithError(c)
			}
		}()
		c.Next()
	}
}

// AbortWithError writes the generic 500 envelope and stops the chain.
func AbortWithError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: GenericErrorMessage})
}

// NotFound answers unknown routes with a JSON body instead of gin's text.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
}
