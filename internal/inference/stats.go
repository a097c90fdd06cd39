package inference

import (
	"sync"
	"time"

	"github.com/sells-group/prospect-cli/internal/cost"
)

// Stats is a snapshot of client usage.
type Stats struct {
	TotalRequests      int             `json:"total_requests"`
	SuccessfulRequests int             `json:"successful_requests"`
	FailedRequests     int             `json:"failed_requests"`
	CacheHits          int             `json:"cache_hits"`
	CachedResponses    int             `json:"cached_responses"`
	EstimatedCostUSD   float64         `json:"estimated_cost_usd"`
	Providers          []ProviderStats `json:"providers"`
}

// ProviderStats is per-provider usage.
type ProviderStats struct {
	Name              string  `json:"name"`
	Requests          int     `json:"requests"`
	Successes         int     `json:"successes"`
	Failures          int     `json:"failures"`
	SuccessRate       float64 `json:"success_rate"`
	AvgLatencySeconds float64 `json:"avg_latency_seconds"`
	InputTokens       int     `json:"input_tokens"`
	OutputTokens      int     `json:"output_tokens"`
	EstimatedCostUSD  float64 `json:"estimated_cost_usd"`
	Circuit           string  `json:"circuit,omitempty"`
}

type providerCounters struct {
	requests, successes, failures int
	totalLatency                  time.Duration
	inputTokens, outputTokens     int
}

type statsRecorder struct {
	calc *cost.Calculator

	mu         sync.Mutex
	total      int
	successful int
	failed     int
	cacheHits  int
	providers  map[string]*providerCounters
	order      []string
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{providers: make(map[string]*providerCounters)}
}

func (s *statsRecorder) register(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[name]; !ok {
		s.providers[name] = &providerCounters{}
		s.order = append(s.order, name)
	}
}

func (s *statsRecorder) request() {
	s.mu.Lock()
	s.total++
	s.mu.Unlock()
}

func (s *statsRecorder) cacheHit() {
	s.mu.Lock()
	s.cacheHits++
	s.successful++
	s.mu.Unlock()
}

func (s *statsRecorder) success(name string, latency time.Duration, u Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successful++
	pc := s.counters(name)
	pc.requests++
	pc.successes++
	pc.totalLatency += latency
	pc.inputTokens += u.InputTokens
	pc.outputTokens += u.OutputTokens
}

func (s *statsRecorder) failure(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc := s.counters(name)
	pc.requests++
	pc.failures++
}

func (s *statsRecorder) exhausted() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

// counters must be called with mu held.
func (s *statsRecorder) counters(name string) *providerCounters {
	pc, ok := s.providers[name]
	if !ok {
		pc = &providerCounters{}
		s.providers[name] = pc
		s.order = append(s.order, name)
	}
	return pc
}

func (s *statsRecorder) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Stats{
		TotalRequests:      s.total,
		SuccessfulRequests: s.successful,
		FailedRequests:     s.failed,
		CacheHits:          s.cacheHits,
	}
	for _, name := range s.order {
		pc := s.providers[name]
		ps := ProviderStats{
			Name:         name,
			Requests:     pc.requests,
			Successes:    pc.successes,
			Failures:     pc.failures,
			InputTokens:  pc.inputTokens,
			OutputTokens: pc.outputTokens,
		}
		if pc.requests > 0 {
			ps.SuccessRate = float64(pc.successes) / float64(pc.requests)
		}
		if pc.successes > 0 {
			ps.AvgLatencySeconds = (pc.totalLatency / time.Duration(pc.successes)).Seconds()
		}
		ps.EstimatedCostUSD = s.calc.Tokens(name, pc.inputTokens, pc.outputTokens)
		out.EstimatedCostUSD += ps.EstimatedCostUSD
		out.Providers = append(out.Providers, ps)
	}
	return out
}
