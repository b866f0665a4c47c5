package consent

type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var badges = map[Status]Badge{
	StatusNeverGiven: {Label: "No consent", Color: "gray", Icon: "circle-slash"},
	StatusWithdrawn:  {Label: "Withdrawn", Color: "red", Icon: "x-circle"},
	StatusActive:     {Label: "Active", Color: "green", Icon: "check-circle"},
	StatusExpiring:   {Label: "Expiring soon", Color: "yellow", Icon: "clock"},
	StatusGrace:      {Label: "Grace period", Color: "orange", Icon: "alert-triangle"},
	StatusExpired:    {Label: "Expired", Color: "red", Icon: "alert-octagon"},
}

// BadgeFor returns the display badge of s. Unknown values get the
// NEVER_GIVEN badge.
func BadgeFor(s Status) Badge {
	if b, ok := badges[s]; ok {
		return b
	}
	return badges[StatusNeverGiven]
}
