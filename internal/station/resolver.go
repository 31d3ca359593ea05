package station

// PortState is the single display state derived for a port.
type PortState string

// Derived port states.
const (
	StateOffline      PortState = "offline"
	StateAvailable    PortState = "available"
	StateOccupied     PortState = "occupied"
	StateChargingMine PortState = "charging"
	StateUnknown      PortState = "unknown"
)

// PortView is what the view layer renders for one port. It is recomputed on
// every read and never stored.
type PortView struct {
	Port        int              `json:"port"`
	Label       string           `json:"label"`
	State       PortState        `json:"state"`
	Button      string           `json:"button"`
	CanStart    bool             `json:"can_start"`
	CanStop     bool             `json:"can_stop"`
	Session     *ActiveSession   `json:"session,omitempty"`
	Consumption *PortConsumption `json:"consumption,omitempty"`
}

// Resolve derives the display state of one port from a snapshot.
//
// Priority order matters: a session recorded for the current user wins over
// whatever charger state the hardware last reported, because the session is
// written synchronously on command success while the status poll may lag by
// up to one interval. The session map holds only the current user's sessions,
// so presence alone means "mine".
func Resolve(id PortIdentity, snap Snapshot) PortView {
	view := PortView{
		Port:  id.Number,
		Label: id.Label,
	}
	key := id.Key()

	if c, ok := snap.Consumption[key]; ok {
		consumption := c
		view.Consumption = &consumption
	}

	status, ok := snap.Statuses[key]
	if !ok || status.StatusMessage == StatusOffline {
		view.State = StateOffline
		view.Button = "Offline"
		return view
	}

	if sess, ok := snap.Sessions[key]; ok {
		session := sess
		view.State = StateChargingMine
		view.Button = "Stop Charging"
		view.CanStop = true
		view.Session = &session
		return view
	}

	switch status.ChargerState {
	case ChargerOn:
		view.State = StateOccupied
		view.Button = "Occupied"
	case ChargerOff:
		view.State = StateAvailable
		view.Button = "Start Charging"
		view.CanStart = true
	default:
		view.State = StateUnknown
		view.Button = "Unknown"
	}
	return view
}
