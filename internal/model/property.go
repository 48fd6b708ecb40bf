package model

import "time"

// Property is a host's listing. Room types reference it by id; the
// property itself never embeds its room types to avoid reference cycles
// between bookings, rooms and tenants.
type Property struct {
	ID        uint64    // properties.id
	HostID    uint64    // properties.host_id (the tenant who owns the listing)
	Name      string    // properties.name
	Address   string    // properties.address
	CreatedAt time.Time // properties.created_at
	UpdatedAt time.Time // properties.updated_at
}
