package root

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/db"
	"soulfamily/sounds-api/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Health checks the database and, when configured, the bucket
func Health(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()

	if err := db.Health(ctx, d.DB); err != nil {
		zap.L().Warn("Database health check failed", zap.Error(err))
		common.Detail(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	if d.S3 != nil {
		if err := d.S3.Ping(ctx); err != nil {
			zap.L().Warn("Storage health check failed", zap.Error(err))
			common.Detail(c, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
