package placement

// queue holds the objects awaiting processing, in arrival order. It keeps a
// single entry per object, refreshed with the latest snapshot.
type queue struct {
	items []subject
}

func (q *queue) push(s subject) {
	id := s.Object.ID()
	for i := range q.items {
		if q.items[i].Object.ID() == id {
			q.items[i] = s
			return
		}
	}
	q.items = append(q.items, s)
}

func (q *queue) pop() (subject, bool) {
	if len(q.items) == 0 {
		return subject{}, false
	}

	s := q.items[0]
	q.items[0] = subject{}
	q.items = q.items[1:]
	return s, true
}

func (q *queue) remove(id string) bool {
	for i := range q.items {
		if q.items[i].Object.ID() == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *queue) len() int {
	return len(q.items)
}
