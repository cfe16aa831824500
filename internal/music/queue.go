package music

// Queue is a FIFO of tracks. It is not safe for concurrent use; the owning
// guild state guards it.
type Queue struct {
	items []Track
}

func (q *Queue) Push(t Track) {
	q.items = append(q.items, t)
}

func (q *Queue) Pop() (Track, bool) {
	if len(q.items) == 0 {
		return Track{}, false
	}
	t := q.items[0]
	q.items[0] = Track{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return t, true
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Clear() {
	q.items = nil
}

// Head returns a copy of at most n tracks from the front.
func (q *Queue) Head(n int) []Track {
	if n > len(q.items) {
		n = len(q.items)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Track, n)
	copy(out, q.items[:n])
	return out
}
