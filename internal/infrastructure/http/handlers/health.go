package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookvine/cart-service/internal/infrastructure/http/response"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

type HealthHandler struct {
	redis     *redis.Client
	log       *logger.Logger
	startTime time.Time
}

func NewHealthHandler(redisClient *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		redis:     redisClient,
		log:       log,
		startTime: time.Now().UTC(),
	}
}

type MemoryMetrics struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
}

type ServicesStatus struct {
	App   string `json:"app"`
	Redis string `json:"redis"`
}

type HealthData struct {
	ServicesStatus ServicesStatus `json:"services_status"`
	Uptime         string         `json:"uptime"`
	Memory         MemoryMetrics  `json:"memory"`
	Goroutines     int            `json:"goroutines"`
}

func (h *HealthHandler) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redisStatus := "UP"
		if err := h.redis.Ping(r.Context()).Err(); err != nil {
			redisStatus = "DOWN"
		}

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		data := HealthData{
			ServicesStatus: ServicesStatus{
				App:   "UP",
				Redis: redisStatus,
			},
			Uptime: time.Since(h.startTime).Round(time.Second).String(),
			Memory: MemoryMetrics{
				Alloc:      mem.Alloc,
				TotalAlloc: mem.TotalAlloc,
				Sys:        mem.Sys,
				NumGC:      mem.NumGC,
			},
			Goroutines: runtime.NumGoroutine(),
		}

		statusCode := http.StatusOK
		if redisStatus == "DOWN" {
			statusCode = http.StatusServiceUnavailable
		}
		response.WriteJSON(w, statusCode, data)
	}
}
