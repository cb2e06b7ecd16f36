package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StatusFunc supplies the current component snapshot for /status.
type StatusFunc func() any

// AdminServer serves last-observed stack status and metrics. It is opt-in:
// it only exists when an admin address is configured, and the default run
// still surfaces every lifecycle event through the log stream alone.
type AdminServer struct {
	addr     string
	router   *gin.Engine
	appeared time.Time
}

func NewAdminServer(addr string, status StatusFunc, logger zerolog.Logger) *AdminServer {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &AdminServer{addr: addr, router: r, appeared: time.Now()}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": "ilpctl",
		})
	})
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"components": status()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Router exposes the gin engine for tests.
func (s *AdminServer) Router() *gin.Engine {
	return s.router
}

// Serve blocks on the configured address.
func (s *AdminServer) Serve() error {
	return s.router.Run(s.addr)
}
