package twitch

import (
	"sync"
	"time"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// breakerState es el estado mutable y compartido de un target lógico.
// Vive solo en memoria del proceso: se pierde en cada reinicio y los
// fallos se re-aprenden rápido.
type breakerState struct {
	failures    int
	lastFailure time.Time
	open        bool
}

// breakerRegistry es el registro de breakers por target, con lifecycle
// explícito: lo crea el Client al arrancar y se limpia con él. Nunca se
// expone como estado global.
type breakerRegistry struct {
	mu        sync.Mutex
	states    map[string]*breakerState
	threshold int
	cooldown  time.Duration
	now       func() time.Time // inyectable en tests
}

func newBreakerRegistry(threshold int, cooldown time.Duration) *breakerRegistry {
	return &breakerRegistry{
		states:    make(map[string]*breakerState),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// allow decide si el target admite una llamada. Con el breaker abierto y el
// cool-down sin cumplir falla rápido; cumplido el cool-down, resetea a
// cerrado/cero y deja pasar (half-open por reset, sin probing escalonado).
func (r *breakerRegistry) allow(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[target]
	if !ok || !st.open {
		return nil
	}
	if r.now().Sub(st.lastFailure) < r.cooldown {
		return domain.ErrCircuitOpen
	}
	st.open = false
	st.failures = 0
	return nil
}

// recordSuccess cierra el breaker y pone el contador a cero.
func (r *breakerRegistry) recordSuccess(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.states[target]; ok {
		st.failures = 0
		st.open = false
	}
}

// recordExhaustion cuenta un agotamiento de reintentos y abre el breaker al
// llegar al umbral. Devuelve true si el breaker quedó abierto en esta llamada.
func (r *breakerRegistry) recordExhaustion(target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[target]
	if !ok {
		st = &breakerState{}
		r.states[target] = st
	}
	st.failures++
	st.lastFailure = r.now()
	if st.failures >= r.threshold && !st.open {
		st.open = true
		return true
	}
	return false
}
