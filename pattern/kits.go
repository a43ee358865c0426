package pattern

// DrumKit maps the 16 voice slots to MIDI notes
type DrumKit struct {
	Name  string
	Notes [NumSlots]uint8
}

// Slot layout (shared by all kits):
// 0 kick, 1 snare, 2 closed hh, 3 open hh, 4-6 low/mid/high tom,
// 7 crash, 8 ride, 9 clap, 10 rimshot, 11 cowbell, 12 clave,
// 13 maracas, 14-15 low/high conga

// Kits contains the built-in drum kit mappings
var Kits = map[string]DrumKit{
	"gm": {
		Name: "General MIDI",
		Notes: [NumSlots]uint8{
			36, 38, 42, 46, 41, 43, 45, 49,
			51, 39, 37, 56, 75, 70, 64, 63,
		},
	},
	"rd8": {
		Name: "Behringer RD-8",
		Notes: [NumSlots]uint8{
			36, 40, 42, 46, 45, 48, 50, 49, // RD-8 snare is 40, not 38
			51, 39, 37, 56, 75, 70, 64, 63,
		},
	},
	"tr8s": {
		Name: "Roland TR-8S",
		Notes: [NumSlots]uint8{
			36, 38, 42, 46, 41, 43, 45, 49,
			51, 39, 37, 56, 75, 70, 62, 63,
		},
	},
	"er1": {
		Name: "Korg ER-1",
		Notes: [NumSlots]uint8{
			36, 38, 42, 46, 40, 41, 43, 49,
			51, 39, 37, 56, 75, 70, 64, 63,
		},
	},
}

// SlotNames labels the 16 voice rows for UIs
var SlotNames = [NumSlots]string{
	"Kick", "Snare", "CH", "OH", "LTom", "MTom", "HTom", "Crash",
	"Ride", "Clap", "Rim", "Cowbl", "Clave", "Marac", "LCnga", "HCnga",
}

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) DrumKit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits["gm"]
}

// DefaultKit is the default kit name
const DefaultKit = "gm"
