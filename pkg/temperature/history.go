package temperature

// DefaultHistorySize bounds the per-backend history, one day at the
// default poll interval.
const DefaultHistorySize = 1440

// history is a bounded record of readings, oldest first.
type history struct {
	size   int
	values []float64
	times  []int64
}

func newHistory(size int) *history {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &history{size: size}
}

// add appends one reading, evicting the oldest when full.
func (h *history) add(unix int64, value float64) {
	if len(h.values) == h.size {
		h.values = h.values[1:]
		h.times = h.times[1:]
	}
	h.values = append(h.values, value)
	h.times = append(h.times, unix)
}

// snapshot returns copies of the parallel value and time series.
func (h *history) snapshot() ([]float64, []int64) {
	values := make([]float64, len(h.values))
	times := make([]int64, len(h.times))
	copy(values, h.values)
	copy(times, h.times)
	return values, times
}
