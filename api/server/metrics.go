package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shirou/gopsutil/v3/cpu"
)

// NodeMetrics holds health metrics for the node.
type NodeMetrics struct {
	UptimeSeconds  int64   `json:"uptime_seconds"`
	TipHeight      int64   `json:"tip_height"`
	MempoolSize    int     `json:"mempool_size"`
	CPULoadPercent float64 `json:"cpu_load_percent"`
	MemoryMB       float64 `json:"memory_mb"`
}

var startTime = time.Now()

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuLoad := 0.0
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuLoad = percents[0]
	}

	tipHeight := int64(-1)
	if s.store != nil {
		tipHeight, _, _ = s.store.Tip()
	}
	poolSize := 0
	if s.pool != nil {
		poolSize = s.pool.Size()
	}

	writeJSON(w, http.StatusOK, NodeMetrics{
		UptimeSeconds:  int64(time.Since(startTime).Seconds()),
		TipHeight:      tipHeight,
		MempoolSize:    poolSize,
		CPULoadPercent: cpuLoad,
		MemoryMB:       float64(m.Alloc) / (1024 * 1024),
	})
}
