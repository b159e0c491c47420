package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yatube_redis_errors_total",
	Help: "Total number of failed Redis commands",
}, []string{"command"})

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide HTTP metrics collector. The collectors
// register with the default Prometheus registry exactly once.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records request counts and latency, skipping the scrape endpoint.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		return p.Middleware(c)
	}
}
