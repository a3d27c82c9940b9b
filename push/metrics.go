package push

// Metrics aggregates one fan-out pass. Partial failure is the steady state
// for a registry that accumulates stale endpoints, so it is reported here
// rather than as an error.
type Metrics struct {
	Sent   int
	Failed int
}

func (m *Metrics) Add(other Metrics) {
	m.Sent += other.Sent
	m.Failed += other.Failed
}
