package metrics

import (
	"sync"
	"time"
)

// Sink reçoit les mesures de requêtes HTTP. Injecté depuis main plutôt
// que des compteurs globaux : le cycle de vie est explicite (création au
// démarrage, lecture via Snapshot).
type Sink interface {
	Record(method, path string, status int, duration time.Duration)
	Snapshot() Snapshot
}

type Snapshot struct {
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	AvgResponseMs      float64          `json:"avg_response_ms"`
	RequestsByEndpoint map[string]int64 `json:"requests_by_endpoint"`
	ErrorsByStatus     map[int]int64    `json:"errors_by_status"`
	StartedAt          time.Time        `json:"started_at"`
}

// maxSamples borne la fenêtre des temps de réponse conservés
const maxSamples = 1000

type InMemorySink struct {
	mu         sync.Mutex
	total      int64
	successful int64
	failed     int64
	samples    []time.Duration
	byEndpoint map[string]int64
	byStatus   map[int]int64
	startedAt  time.Time
}

func NewInMemorySink() *InMemorySink {
	return &InMemorySink{
		byEndpoint: make(map[string]int64),
		byStatus:   make(map[int]int64),
		startedAt:  time.Now(),
	}
}

func (s *InMemorySink) Record(method, path string, status int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byEndpoint[method+" "+path]++

	if status >= 200 && status < 400 {
		s.successful++
	} else {
		s.failed++
		s.byStatus[status]++
	}

	s.samples = append(s.samples, duration)
	if len(s.samples) > maxSamples {
		s.samples = s.samples[1:]
	}
}

func (s *InMemorySink) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalRequests:      s.total,
		SuccessfulRequests: s.successful,
		FailedRequests:     s.failed,
		RequestsByEndpoint: make(map[string]int64, len(s.byEndpoint)),
		ErrorsByStatus:     make(map[int]int64, len(s.byStatus)),
		StartedAt:          s.startedAt,
	}
	for k, v := range s.byEndpoint {
		snap.RequestsByEndpoint[k] = v
	}
	for k, v := range s.byStatus {
		snap.ErrorsByStatus[k] = v
	}
	if len(s.samples) > 0 {
		var sum time.Duration
		for _, d := range s.samples {
			sum += d
		}
		snap.AvgResponseMs = float64(sum.Milliseconds()) / float64(len(s.samples))
	}
	return snap
}
