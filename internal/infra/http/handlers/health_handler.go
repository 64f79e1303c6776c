package handlers

import (
	"net/http"
	"time"
)

// ConnState is the slice of the broker connection the health check needs.
type ConnState interface {
	IsClosed() bool
}

type HealthHandler struct {
	RabbitMQ    ConnState
	LeadsAPIURL string
	CRMAPIURL   string
	StartTime   time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(rabbitMQ ConnState, leadsURL, crmURL string) *HealthHandler {
	return &HealthHandler{
		RabbitMQ:    rabbitMQ,
		LeadsAPIURL: leadsURL,
		CRMAPIURL:   crmURL,
		StartTime:   time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)

	// Check RabbitMQ
	if h.RabbitMQ != nil {
		if h.RabbitMQ.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		} else {
			deps["rabbitmq"] = "healthy"
		}
	} else {
		deps["rabbitmq"] = "not configured"
	}

	// Upstream services: we only know whether they are configured; an actual
	// probe on every health poll would hammer them.
	if h.LeadsAPIURL != "" {
		deps["leads_api"] = "configured"
	} else {
		deps["leads_api"] = "not configured"
	}
	if h.CRMAPIURL != "" {
		deps["crm_api"] = "configured"
	} else {
		deps["crm_api"] = "not configured"
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "configured" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:       status,
		Version:      "1.0.0",
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}
