package middleware

import (
	"fmt"
	"net/http"
	"time"

	"muni-hris/internal/shared/apperror"
	"muni-hris/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const idempotencyLockTTL = 30 * time.Second

// Idempotency guards mutating endpoints against duplicate submissions. When
// a request carries an Idempotency-Key, a redis SetNX lock rejects concurrent
// retries of the same key until the first one finishes.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" || c.Request.Method != http.MethodPost || rdb == nil {
			c.Next()
			return
		}

		employeeID := c.GetString(ContextEmployeeID)
		lockKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), employeeID, key)

		acquired, err := rdb.SetNX(c.Request.Context(), lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			// redis being down must not block business traffic
			c.Next()
			return
		}
		if !acquired {
			response.Error(c, http.StatusConflict, apperror.CodeConflict,
				"An identical request is already being processed", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
