package metrics

import "fxbacktest-go/internal/tick"

// Trading session labels keyed by UTC wall-clock minutes.
const (
	SessionAsia    = "Asia"
	SessionLondon  = "London"
	SessionOverlap = "London_New_York_Overlap"
	SessionNewYork = "New_York"
	SessionOther   = "Other"
)

// sessionTable maps minute-of-day to session label. Built once at
// process start; immutable afterwards.
var sessionTable = buildSessionTable()

func buildSessionTable() [1440]string {
	var table [1440]string
	label := func(minute int) string {
		switch {
		case minute >= 22*60 || minute < 7*60:
			return SessionAsia
		case minute < 12*60:
			return SessionLondon
		case minute < 16*60:
			return SessionOverlap
		case minute < 21*60:
			return SessionNewYork
		default:
			return SessionOther
		}
	}
	for m := range table {
		table[m] = label(m)
	}
	return table
}

// Session classifies each tick into the trading session covering its
// UTC wall-clock time.
type Session struct {
	name   string
	labels map[string]string
	empty  map[string]float64
}

func NewSession(name string) *Session {
	return &Session{
		name:   name,
		labels: map[string]string{"session_label": sessionTable[0]},
		empty:  map[string]float64{},
	}
}

func (m *Session) Name() string { return m.name }

func (m *Session) Update(tk tick.Tick) {
	m.labels["session_label"] = sessionTable[tk.Hour*60+tk.Minute]
}

func (m *Session) Value() map[string]float64 { return m.empty }

func (m *Session) Labels() map[string]string { return m.labels }
