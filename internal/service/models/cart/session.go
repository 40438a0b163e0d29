package cart

import (
	"sync"

	"github.com/msalarini/store-lamayer/internal/service/models/exchangerate"
)

// Session is the transient checkout state of one actor: the cart plus the
// customer fields and the rate typed on the POS screen. Nothing here is persisted.
type Session struct {
	mu sync.Mutex

	Cart          Cart
	CustomerName  string
	CustomerPhone string
	RateInput     string
}

// Lock serializes every mutation and the order submission of a session.
func (s *Session) Lock() {
	s.mu.Lock()
}

func (s *Session) Unlock() {
	s.mu.Unlock()
}

// Rate parses the stored rate text.
func (s *Session) Rate() exchangerate.Rate {
	return exchangerate.Parse(s.RateInput)
}

// Reset clears the cart and the customer fields. The rate is kept for the next sale.
func (s *Session) Reset() {
	s.Cart.Clear()
	s.CustomerName = ""
	s.CustomerPhone = ""
}

// Registry holds one session per actor.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Get returns the actor's session, creating an empty one on first use.
func (r *Registry) Get(actor string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[actor]
	if !ok {
		s = &Session{}
		r.sessions[actor] = s
	}

	return s
}

// View is a read-only snapshot of a session with its totals.
type View struct {
	Lines         []Line
	TotalItems    int
	Totals        Totals
	RateInput     string
	CustomerName  string
	CustomerPhone string
}

// View snapshots the session. The caller must hold the session lock.
func (s *Session) View() View {
	return View{
		Lines:         s.Cart.Lines(),
		TotalItems:    s.Cart.TotalItems(),
		Totals:        s.Cart.Totals(s.Rate()),
		RateInput:     s.RateInput,
		CustomerName:  s.CustomerName,
		CustomerPhone: s.CustomerPhone,
	}
}
