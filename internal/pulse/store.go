package pulse

// DefaultStoreCapacity is the number of signals kept in memory.
const DefaultStoreCapacity = 16

// Store is a fixed-capacity FIFO of completed signals. When full, the oldest
// signal is overwritten. Not safe for concurrent use; the foreground loop owns it.
type Store struct {
	buf      []Signal
	capacity int
	head     int // next write position
	count    int
}

// NewStore creates a Store holding up to capacity signals.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &Store{
		buf:      make([]Signal, capacity),
		capacity: capacity,
	}
}

// Add stores a copy of sig. Empty signals are ignored.
func (s *Store) Add(sig Signal) {
	if len(sig) == 0 {
		return
	}
	s.buf[s.head] = sig.Clone()
	s.head = (s.head + 1) % s.capacity
	if s.count < s.capacity {
		s.count++
	}
}

// Len returns the number of stored signals.
func (s *Store) Len() int {
	return s.count
}

// At returns the i-th stored signal, oldest first.
func (s *Store) At(i int) (Signal, bool) {
	if i < 0 || i >= s.count {
		return nil, false
	}
	start := (s.head - s.count + s.capacity) % s.capacity
	return s.buf[(start+i)%s.capacity], true
}

// Last returns the most recently stored signal.
func (s *Store) Last() (Signal, bool) {
	return s.At(s.count - 1)
}
