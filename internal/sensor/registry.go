package sensor

import (
	"sort"
	"sync"
	"time"
)

// Capacity is the maximum number of sensors the registry holds.
const Capacity = 16

// Type classifies a sensor device.
type Type string

// Known sensor types.
const (
	TypeDoor   Type = "door"
	TypePIR    Type = "pir"
	TypeKeypad Type = "keypad"
)

// Record is the registry's view of one sensor.
type Record struct {
	// ID is the sensor's unique device identifier.
	ID string

	// Type is the sensor class, empty until learned.
	Type Type

	// Open is the last reported contact state.
	Open bool

	// Registered is false for sensors that were unregistered; their
	// record is retained but they no longer count as active.
	Registered bool

	// LastSeen is when the sensor last sent anything.
	LastSeen time.Time

	// LastRSSI is the signal strength of the last message, in dBm.
	LastRSSI int8
}

// Registry is the bounded sensor table. All methods are safe for
// concurrent use; mutators are expected to be called only from the
// controller goroutine, readers from anywhere.
type Registry struct {
	mu      sync.Mutex
	records map[string]*Record

	// now is injectable for tests.
	now func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*Record, Capacity),
		now:     time.Now,
	}
}

// Register adds a sensor or re-activates an existing record. It is
// idempotent: registering a known sensor refreshes its type and flag
// without error. At capacity, unknown sensors are rejected.
func (r *Registry) Register(id string, typ Type) error {
	if id == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[id]; ok {
		rec.Type = typ
		rec.Registered = true
		return nil
	}
	if len(r.records) >= Capacity {
		return ErrRegistryFull
	}

	r.records[id] = &Record{
		ID:         id,
		Type:       typ,
		Registered: true,
		LastSeen:   r.now(),
	}
	return nil
}

// Unregister deactivates a sensor. The record is retained; only the
// registered flag is cleared.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Registered = false
	return nil
}

// UpdateState records a contact-state report, creating the record on
// first contact. At capacity, reports from unknown sensors are dropped.
func (r *Registry) UpdateState(id string, typ Type, open bool, rssi int8) error {
	return r.upsert(id, func(rec *Record) {
		setTypeIfUnknown(rec, typ)
		rec.Open = open
		rec.LastRSSI = rssi
	})
}

// UpdateHeartbeat refreshes a sensor's liveness bookkeeping, creating
// the record on first contact.
func (r *Registry) UpdateHeartbeat(id string, typ Type, rssi int8) error {
	return r.upsert(id, func(rec *Record) {
		setTypeIfUnknown(rec, typ)
		rec.LastRSSI = rssi
	})
}

// setTypeIfUnknown learns the type from the device's own report without
// overwriting one set at registration.
func setTypeIfUnknown(rec *Record, typ Type) {
	if typ != "" && rec.Type == "" {
		rec.Type = typ
	}
}

// upsert applies fn to the sensor's record, creating it if the registry
// has room, and refreshes LastSeen.
func (r *Registry) upsert(id string, fn func(*Record)) error {
	if id == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		if len(r.records) >= Capacity {
			return ErrRegistryFull
		}
		rec = &Record{ID: id, Registered: true}
		r.records[id] = rec
	}

	fn(rec)
	rec.LastSeen = r.now()
	return nil
}

// Lookup returns a copy of the sensor's record.
func (r *Registry) Lookup(id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *rec, nil
}

// Snapshot returns copies of all records, ordered by ID for stable
// output. The lock is held only for the duration of the copy.
func (r *Registry) Snapshot() []Record {
	r.mu.Lock()
	records := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, *rec)
	}
	r.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records
}

// Count returns the number of records, active or not.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
