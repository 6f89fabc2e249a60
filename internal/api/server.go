// HTTP layer: REST endpoints plus SSE and websocket streams
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/broadcast"
	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/logging"
	"fleetops-sim/internal/sim"
	"fleetops-sim/internal/store"
)

// Store is the CRUD surface the HTTP layer needs from storage.
type Store interface {
	GetGeofences(ctx context.Context) ([]store.Geofence, error)
	CreateGeofence(ctx context.Context, name string, polygon []fleet.Position) (store.Geofence, error)
	DeleteGeofence(ctx context.Context, id int64) error
	ListAlarms(ctx context.Context, limit int) ([]store.AlarmRecord, error)
	AcknowledgeAlarm(ctx context.Context, id int64) (bool, error)
}

// Server exposes fleet snapshots, geofence/alarm CRUD, and live streams.
type Server struct {
	engine   *sim.Engine
	store    Store
	assetBus *broadcast.Broadcaster[fleet.SnapshotRow]
	alertBus *broadcast.Broadcaster[alarm.Alarm]
}

// NewServer wires the HTTP layer to the engine, storage, and broadcasters.
func NewServer(
	engine *sim.Engine,
	st Store,
	assetBus *broadcast.Broadcaster[fleet.SnapshotRow],
	alertBus *broadcast.Broadcaster[alarm.Alarm],
) *Server {
	return &Server{engine: engine, store: st, assetBus: assetBus, alertBus: alertBus}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/healthz", s.handleHealth)
	r.GET("/api/assets", s.handleAssets)
	r.GET("/api/geofences", s.handleListGeofences)
	r.POST("/api/geofences", s.handleCreateGeofence)
	r.DELETE("/api/geofences/:id", s.handleDeleteGeofence)
	r.GET("/api/alarms", s.handleListAlarms)
	r.POST("/api/alarms/:id/ack", s.handleAckAlarm)
	r.GET("/stream/assets", s.handleAssetStream)
	r.GET("/stream/alerts", s.handleAlertStream)
	r.GET("/ws", s.handleWebsocket)
	return r
}

// Start serves HTTP until the context is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.FromContext(ctx).Error("server shutdown failed", "err", err)
		}
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ticks": s.engine.TickCount()})
}

func (s *Server) handleAssets(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleListGeofences(c *gin.Context) {
	fences, err := s.store.GetGeofences(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if fences == nil {
		fences = []store.Geofence{}
	}
	c.JSON(http.StatusOK, fences)
}

func (s *Server) handleCreateGeofence(c *gin.Context) {
	var req struct {
		Name    string       `json:"name" binding:"required"`
		Polygon [][2]float64 `json:"polygon" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if len(req.Polygon) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "polygon needs at least 3 vertices"})
		return
	}
	polygon := make([]fleet.Position, len(req.Polygon))
	for i, p := range req.Polygon {
		polygon[i] = fleet.Position{Lat: p[0], Lon: p[1]}
	}
	g, err := s.store.CreateGeofence(c.Request.Context(), req.Name, polygon)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (s *Server) handleDeleteGeofence(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.store.DeleteGeofence(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListAlarms(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	alarms, err := s.store.ListAlarms(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if alarms == nil {
		alarms = []store.AlarmRecord{}
	}
	c.JSON(http.StatusOK, alarms)
}

func (s *Server) handleAckAlarm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ok, err := s.store.AcknowledgeAlarm(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "alarm not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

func (s *Server) handleAssetStream(c *gin.Context) {
	id, ch := s.assetBus.Subscribe()
	defer s.assetBus.Unsubscribe(id)
	streamSSE(c, "asset", ch)
}

func (s *Server) handleAlertStream(c *gin.Context) {
	id, ch := s.alertBus.Subscribe()
	defer s.alertBus.Unsubscribe(id)
	streamSSE(c, "alert", ch)
}

// streamSSE forwards broadcast values as server-sent events until the
// client disconnects.
func streamSSE[T any](c *gin.Context, event string, ch <-chan T) {
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event, v)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
