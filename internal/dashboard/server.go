package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rawblock/goldrush-engine/internal/logging"
	"github.com/rawblock/goldrush-engine/internal/metrics"
	"github.com/rawblock/goldrush-engine/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the optional dashboard of SPEC_FULL.md §4.11: a read-only
// window onto the metrics sink and the seven named queues.
type Server struct {
	http *http.Server
	log  *logging.Logger
}

// New wires up the dashboard's routes. authToken empty disables auth
// (dev mode); ratePerMinute/burst configure the per-IP limiter.
func New(port int, authToken string, ratePerMinute, burst int, queues *pipeline.Queues, sink *metrics.Sink) *Server {
	log := logging.New("Dashboard")
	if authToken == "" {
		log.Warnf("DASHBOARD_AUTH_TOKEN unset, serving in dev mode without authentication")
	}

	hub := NewHub()
	sink.SetPublisher(hub)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(newIPRateLimiter(ratePerMinute, burst).Middleware())

	api := router.Group("/", AuthMiddleware(authToken))
	api.GET("/snapshot", func(c *gin.Context) {
		c.JSON(http.StatusOK, sink.Snapshot())
	})
	api.GET("/queues", func(c *gin.Context) {
		c.JSON(http.StatusOK, queues.Depths())
	})
	api.GET("/ws", func(c *gin.Context) {
		serveWS(hub, c.Writer, c.Request, log)
	})

	return &Server{
		http: &http.Server{Addr: ":" + strconv.Itoa(port), Handler: router},
		log:  log,
	}
}

// Run starts the listener in the background and blocks until ctx is
// cancelled, then shuts it down gracefully.
func (s *Server) Run(ctx context.Context) {
	go func() {
		s.log.Infof("listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Warnf("listener stopped: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.http.Shutdown(shutdownCtx)
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request, log *logging.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := hub.register(conn)
	defer hub.unregister(conn)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
