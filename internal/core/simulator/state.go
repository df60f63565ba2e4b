package simulator

import "viewsim/internal/shared/types"

// State is the observable state of the simulator, published after every
// mutation.
type State struct {
	Session   *types.Session `json:"session"`
	Tabs      []*types.Tab   `json:"tabs"`
	IsRunning bool           `json:"isRunning"`
	IsLoading bool           `json:"isLoading"`
	Error     string         `json:"error"`
}

func (s State) clone() State {
	c := s
	if s.Session != nil {
		c.Session = s.Session.Clone()
	}
	c.Tabs = make([]*types.Tab, len(s.Tabs))
	for i, t := range s.Tabs {
		c.Tabs[i] = t.Clone()
	}
	return c
}

// Notification levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Publisher receives state snapshots and user-facing notifications.
type Publisher interface {
	PublishState(State)
	Notify(level, message string)
}

type nopPublisher struct{}

func (nopPublisher) PublishState(State)    {}
func (nopPublisher) Notify(string, string) {}
