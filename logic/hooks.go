package logic

import "sync"

// Guard suppresses change dispatch while at least one holder is active.
// Holders nest: dispatch resumes only after the last one releases.
type Guard struct {
	mu    sync.Mutex
	depth int
}

// Acquire marks a new holder. The returned release is safe to call more
// than once; only the first call counts.
func (g *Guard) Acquire() (release func()) {
	g.mu.Lock()
	g.depth++
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.depth > 0 {
				g.depth--
			}
		})
	}
}

// Active reports whether any holder is present.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth > 0
}
