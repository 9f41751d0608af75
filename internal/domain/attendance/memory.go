package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryKey struct {
	userID string
	date   string
}

type MemoryRepository struct {
	mu      sync.RWMutex
	records map[memoryKey]Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: map[memoryKey]Record{}}
}

func (m *MemoryRepository) ListRange(_ context.Context, from, to time.Time) ([]Record, error) {
	lo, hi := from.Format(DateLayout), to.Format(DateLayout)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if rec.Date >= lo && rec.Date <= hi {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}

func (m *MemoryRepository) Mark(_ context.Context, userID string, date time.Time, kind Kind, clock string) (Record, error) {
	key := memoryKey{userID: userID, date: date.Format(DateLayout)}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		rec = Record{ID: uuid.NewString(), UserID: userID, Date: key.date, Status: "present"}
	}
	if kind == KindCheckIn {
		rec.CheckIn = clock
	} else {
		rec.CheckOut = clock
	}
	m.records[key] = rec
	return rec, nil
}
