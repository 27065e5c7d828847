package handlers

import (
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/elee1766/finchat/src/server/response"
)

type HealthHandler struct {
	started time.Time
	proc    *process.Process
}

func NewHealthHandler() *HealthHandler {
	h := &HealthHandler{started: time.Now()}
	// Stats are optional; health is still reported without them.
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		h.proc = p
	}
	return h
}

type healthStatus struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	RSSBytes      uint64  `json:"rss_bytes,omitempty"`
	CPUPercent    float64 `json:"cpu_percent,omitempty"`
}

// HealthCheck handles GET /healthz.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := healthStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}
	if h.proc != nil {
		ctx := c.Request.Context()
		if mem, err := h.proc.MemoryInfoWithContext(ctx); err == nil {
			status.RSSBytes = mem.RSS
		}
		if cpu, err := h.proc.CPUPercentWithContext(ctx); err == nil {
			status.CPUPercent = cpu
		}
	}
	response.RespondOK(c, status)
}
