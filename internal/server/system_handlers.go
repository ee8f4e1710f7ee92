package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/tradeadvisor/internal/database"
)

// SystemHandlers serves host and journal statistics
type SystemHandlers struct {
	log       zerolog.Logger
	journalDB *database.DB
	startedAt time.Time
}

// NewSystemHandlers creates system handlers. journalDB may be nil.
func NewSystemHandlers(log zerolog.Logger, journalDB *database.DB, startedAt time.Time) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		journalDB: journalDB,
		startedAt: startedAt,
	}
}

// StatsResponse is returned by GET /api/system/stats
type StatsResponse struct {
	UptimeSeconds float64         `json:"uptime_seconds"`
	Goroutines    int             `json:"goroutines"`
	CPUPercent    float64         `json:"cpu_percent"`
	RAMPercent    float64         `json:"ram_percent"`
	Journal       *database.Stats `json:"journal,omitempty"`
}

// HandleStats handles GET /api/system/stats
func (h *SystemHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.hostUsage()

	resp := StatsResponse{
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
	}

	if h.journalDB != nil {
		stats, err := h.journalDB.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to get journal statistics")
		} else {
			resp.Journal = stats
		}
	}

	h.writeJSON(w, resp)
}

// hostUsage samples CPU over 100ms so the request stays fast
func (h *SystemHandlers) hostUsage() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
