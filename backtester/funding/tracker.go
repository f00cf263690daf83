package funding

import "fmt"

// NewPositionTracker returns a tracker capped at max slots
func NewPositionTracker(maxPositions int) *PositionTracker {
	return &PositionTracker{
		max:      maxPositions,
		reserved: make(map[string]struct{}),
		open:     make(map[string]struct{}),
	}
}

// Max returns the position cap
func (p *PositionTracker) Max() int {
	return p.max
}

// Occupied returns the number of reserved and open slots
func (p *PositionTracker) Occupied() int {
	return len(p.reserved) + len(p.open)
}

// OpenPositions returns the number of open slots
func (p *PositionTracker) OpenPositions() int {
	return len(p.open)
}

// Remaining returns how many more slots may be reserved, or -1 when unlimited
func (p *PositionTracker) Remaining() int {
	if p.max <= 0 {
		return -1
	}
	return p.max - p.Occupied()
}

// CanOpenPosition reports whether another slot may be reserved
func (p *PositionTracker) CanOpenPosition() bool {
	return p.max <= 0 || p.Occupied() < p.max
}

// Reserve claims capacity for a slot with resting buys
func (p *PositionTracker) Reserve(slot string) error {
	if p.tracked(slot) {
		return fmt.Errorf("%w: %s", errSlotTracked, slot)
	}
	if !p.CanOpenPosition() {
		return fmt.Errorf("%w: %d of %d", ErrNoCapacity, p.Occupied(), p.max)
	}
	p.reserved[slot] = struct{}{}
	return nil
}

// Release frees a reservation whose buys all expired
func (p *PositionTracker) Release(slot string) error {
	if _, ok := p.reserved[slot]; !ok {
		return fmt.Errorf("%w: %s", errSlotNotReserved, slot)
	}
	delete(p.reserved, slot)
	return nil
}

// Open converts a reservation into an open position
func (p *PositionTracker) Open(slot string) error {
	if _, ok := p.reserved[slot]; !ok {
		return fmt.Errorf("%w: %s", errSlotNotReserved, slot)
	}
	delete(p.reserved, slot)
	p.open[slot] = struct{}{}
	return nil
}

// Close frees the capacity of a closed position
func (p *PositionTracker) Close(slot string) error {
	if _, ok := p.open[slot]; !ok {
		return fmt.Errorf("%w: %s", errSlotNotOpen, slot)
	}
	delete(p.open, slot)
	return nil
}

// IsOpen reports whether slot holds an open position
func (p *PositionTracker) IsOpen(slot string) bool {
	_, ok := p.open[slot]
	return ok
}

func (p *PositionTracker) tracked(slot string) bool {
	_, reserved := p.reserved[slot]
	_, open := p.open[slot]
	return reserved || open
}
