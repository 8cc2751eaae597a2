package storage

import (
	"context"
	"sync"

	"github.com/skalibog/tradegate/pkg/models"
)

// Journal принимает результаты анализа для внешнего наблюдения.
// Ядро никогда не читает журнал, состояние между вызовами в нем не хранится.
type Journal interface {
	Record(ctx context.Context, eval *models.Evaluation) error
	Close()
}

// MemoryJournal хранит записи в памяти процесса
type MemoryJournal struct {
	mu      sync.Mutex
	entries []*models.Evaluation
}

// NewMemoryJournal создает журнал в памяти
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Record добавляет оценку
func (m *MemoryJournal) Record(ctx context.Context, eval *models.Evaluation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, eval)
	return nil
}

// Entries возвращает копию записанных оценок
func (m *MemoryJournal) Entries() []*models.Evaluation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Evaluation, len(m.entries))
	copy(out, m.entries)
	return out
}

// Close ничего не делает
func (m *MemoryJournal) Close() {}
