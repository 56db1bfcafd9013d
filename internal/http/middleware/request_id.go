package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in and out; an id supplied by an
// upstream proxy is honored so traces line up across hops.
const HeaderRequestID = "X-Request-ID"

const ctxKeyRequestID = "request_id"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(ctxKeyRequestID, id)
		c.Writer.Header().Set(HeaderRequestID, id)

		c.Next()
	}
}

// GetRequestID returns the id RequestID assigned, or "" outside the chain.
func GetRequestID(c *gin.Context) string {
	id, _ := c.Get(ctxKeyRequestID)
	s, _ := id.(string)
	return s
}
