package light

// RoomStatus is the room aggregate as it travels on the wire.
type RoomStatus struct {
	Room  string    `json:"room"`
	State Aggregate `json:"state"`
}

// Room groups the lights sharing one room name. Member order follows
// registration order. Access is serialized by the owning Service.
type Room struct {
	name      string
	members   []*Light
	aggregate Aggregate
}

func newRoom(name string) *Room {
	return &Room{name: name}
}

// Name returns the room name.
func (r *Room) Name() string { return r.name }

// Aggregate returns the last computed aggregate state.
func (r *Room) Aggregate() Aggregate { return r.aggregate }

// Status returns the room's wire status.
func (r *Room) Status() RoomStatus {
	return RoomStatus{Room: r.name, State: r.aggregate}
}

func (r *Room) add(l *Light) {
	r.members = append(r.members, l)
	r.aggregate = aggregateOf(r.members)
}

// refresh recomputes the aggregate. It reports whether the value
// changed; recomputing to the same value is a no-op.
func (r *Room) refresh() bool {
	next := aggregateOf(r.members)
	if next == r.aggregate {
		return false
	}
	r.aggregate = next
	return true
}
