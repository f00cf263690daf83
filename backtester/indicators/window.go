package indicators

func newWindow(capacity int) *window {
	return &window{data: make([]float64, capacity)}
}

func (w *window) push(v float64) {
	if w.size < len(w.data) {
		w.data[(w.start+w.size)%len(w.data)] = v
		w.size++
		return
	}
	w.data[w.start] = v
	w.start = (w.start + 1) % len(w.data)
}

func (w *window) len() int {
	return w.size
}

func (w *window) full() bool {
	return w.size == len(w.data)
}

func (w *window) at(i int) float64 {
	return w.data[(w.start+i)%len(w.data)]
}

func (w *window) oldest() float64 {
	return w.at(0)
}

func (w *window) values() []float64 {
	resp := make([]float64, w.size)
	for i := range resp {
		resp[i] = w.at(i)
	}
	return resp
}

func newEWMA(period int) ewma {
	return ewma{alpha: 2 / (float64(period) + 1)}
}

// update seeds the average with the first value
func (e *ewma) update(v float64) float64 {
	if !e.seeded {
		e.value = v
		e.seeded = true
		return v
	}
	e.value += e.alpha * (v - e.value)
	return e.value
}
