package middleware

import (
	"log"
	"time"

	"velora_back_end/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics alimente le sink injecté avec chaque requête terminée.
// c.FullPath() donne la route déclarée (pas l'URL brute) pour éviter une
// explosion de cardinalité sur les paramètres.
func Metrics(sink metrics.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		elapsed := time.Since(start)
		sink.Record(c.Request.Method, path, c.Writer.Status(), elapsed)

		if elapsed > time.Second {
			log.Printf("🐢 Requête lente: %s %s (%d ms)", c.Request.Method, path, elapsed.Milliseconds())
		}
	}
}
