package collab

import "sync"

// PresenceManager tracks the last reported cursor and selection of each
// session on the shared scene.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]PresencePayload // session ID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{presences: make(map[string]PresencePayload)}
}

func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	pm.presences[userID] = clonePresence(*p)
	pm.mu.Unlock()
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	delete(pm.presences, userID)
	pm.mu.Unlock()
}

// ShapeDeleted keeps reported selections pointing at the same shapes after
// the shape at index is removed. Selections of the removed shape are
// cleared.
func (pm *PresenceManager) ShapeDeleted(index int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for userID, p := range pm.presences {
		switch {
		case p.Selection == nil || *p.Selection < index:
			continue
		case *p.Selection == index:
			p.Selection = nil
		default:
			shifted := *p.Selection - 1
			p.Selection = &shifted
		}
		pm.presences[userID] = p
	}
}

// GetAll returns copies of every presence.
func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make(map[string]*PresencePayload, len(pm.presences))
	for userID, p := range pm.presences {
		c := clonePresence(p)
		out[userID] = &c
	}
	return out
}

// StateMessage is the presence.state message for a joining client, or nil
// when nobody has reported presence yet.
func (pm *PresenceManager) StateMessage() *Message {
	all := pm.GetAll()
	if len(all) == 0 {
		return nil
	}
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: all})
}

func clonePresence(p PresencePayload) PresencePayload {
	if p.Cursor != nil {
		cursor := *p.Cursor
		p.Cursor = &cursor
	}
	if p.Selection != nil {
		sel := *p.Selection
		p.Selection = &sel
	}
	return p
}
