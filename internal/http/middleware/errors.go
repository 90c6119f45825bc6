package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-auth-service/internal/domain"
	"github.com/tbourn/go-auth-service/internal/http/response"
)

// Errors is the central error stage. Handlers and middleware report
// failures with c.Error(err) followed by c.Abort(); after the chain
// returns, Errors renders the last reported error through response.Handle
// and writes the envelope with the matching status.
//
// Nothing is written when the chain produced no errors or when a response
// was already sent.
func Errors(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		env := response.Handle(err, GetRequestID(c), version)

		kind := "internal"
		if ae, ok := domain.AsAppError(err); ok {
			kind = ae.Kind.String()
		}
		observeError(kind, env.Code)

		lg := LoggerFrom(c)
		if env.Code >= http.StatusInternalServerError {
			lg.Error().Err(err).Int("status", env.Code).Msg("request failed")
		} else {
			lg.Debug().Err(err).Int("status", env.Code).Str("kind", kind).Msg("request rejected")
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(env.Code, env)
	}
}

// Fail forwards err to the Errors() stage and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
