package domain

import "time"

// SlotClass clasifica un slot según el objetivo que persigue.
type SlotClass string

const (
	SlotDrop     SlotClass = "drop"     // canal con juego en la whitelist de drops
	SlotFavorite SlotClass = "favorite" // cualquier otro canal en vivo
)

// StreamSlot es la asignación efímera de un canal a una cuenta durante un
// tick. Se reemplaza completo (delete-all + insert) en cada ciclo: ningún
// slot tiene identidad entre ticks.
type StreamSlot struct {
	ID         string // UUID local, solo para tracking dentro del tick
	AccountID  int64
	ChannelID  string
	Class      SlotClass
	AssignedAt time.Time
}

// SlotAssignment es el resultado determinista del allocator para una cuenta.
type SlotAssignment struct {
	AccountID     int64
	DropSlots     int // capacidad reservada para la clase drop
	FavoriteSlots int // capacidad reservada para la clase favorite
	Slots         []StreamSlot
}

// Limit devuelve la capacidad total de la asignación.
func (a SlotAssignment) Limit() int {
	return a.DropSlots + a.FavoriteSlots
}
