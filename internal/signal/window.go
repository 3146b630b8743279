package signal

// window is a fixed-capacity FIFO buffer over float64 samples. Pushing onto
// a full window evicts the oldest sample.
type window struct {
	buf   []float64
	start int
	size  int
}

func newWindow(capacity int) *window {
	if capacity < 1 {
		capacity = 1
	}
	return &window{buf: make([]float64, capacity)}
}

func (w *window) push(v float64) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = v
		w.size++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

func (w *window) len() int { return w.size }

func (w *window) full() bool { return w.size == len(w.buf) }

// values returns the samples oldest-first.
func (w *window) values() []float64 {
	out := make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

func (w *window) reset() {
	w.start = 0
	w.size = 0
}
