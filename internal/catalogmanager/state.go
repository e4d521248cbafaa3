package catalogmanager

import (
	"errors"
	"sync"

	"catalog-service/internal/models"
)

var ErrUnknownNode = errors.New("node is not part of this list")

// MoveID returns ids with activeID removed and reinserted at the position
// overID had. The input slice is not modified.
func MoveID(ids []uint, activeID, overID uint) ([]uint, error) {
	from, to := indexOf(ids, activeID), indexOf(ids, overID)
	if from < 0 || to < 0 {
		return nil, ErrUnknownNode
	}

	out := make([]uint, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	out = append(out[:to], append([]uint{activeID}, out[to:]...)...)
	return out, nil
}

func indexOf(ids []uint, id uint) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// ExpandState remembers which tree nodes are expanded. It lives only as long
// as the Manager.
type ExpandState struct {
	mu       sync.Mutex
	expanded map[models.NodeLevel]map[uint]bool
}

func NewExpandState() *ExpandState {
	return &ExpandState{expanded: make(map[models.NodeLevel]map[uint]bool)}
}

// Toggle flips a node and returns whether it is now expanded
func (s *ExpandState) Toggle(level models.NodeLevel, id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.expanded[level]
	if ids == nil {
		ids = make(map[uint]bool)
		s.expanded[level] = ids
	}
	if ids[id] {
		delete(ids, id)
		return false
	}
	ids[id] = true
	return true
}

func (s *ExpandState) IsExpanded(level models.NodeLevel, id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[level][id]
}

// Forget drops a node, used after it is deleted
func (s *ExpandState) Forget(level models.NodeLevel, id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expanded[level], id)
}
