package cell

import (
	"sort"
	"sync"

	"github.com/annel0/monument/internal/floorplan"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[floorplan.CellCode]Kind)
)

// Register добавляет вид ячейки в регистр
func Register(kind Kind) {
	registryMu.Lock()
	registry[kind.Code] = kind
	registryMu.Unlock()
}

// Get возвращает вид для указанного кода
func Get(code floorplan.CellCode) (Kind, bool) {
	registryMu.RLock()
	kind, exists := registry[code]
	registryMu.RUnlock()
	return kind, exists
}

// IsKnownCode проверяет, является ли код пустотой или зарегистрированным видом
func IsKnownCode(code floorplan.CellCode) bool {
	if code == floorplan.Empty {
		return true
	}
	_, exists := Get(code)
	return exists
}

// Kinds возвращает все зарегистрированные виды по возрастанию кода
func Kinds() []Kind {
	registryMu.RLock()
	kinds := make([]Kind, 0, len(registry))
	for _, k := range registry {
		kinds = append(kinds, k)
	}
	registryMu.RUnlock()

	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Code < kinds[j].Code })
	return kinds
}
