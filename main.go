package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-beatclock/audio"
	"go-beatclock/config"
	"go-beatclock/debug"
	"go-beatclock/engine"
	"go-beatclock/midibridge"
	"go-beatclock/pattern"
	"go-beatclock/tui"
)

func main() {
	if os.Getenv("BEATCLOCK_DEBUG") != "" {
		debug.Enable()
		defer debug.Disable()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v\n", err)
		os.Exit(1)
	}

	clock := engine.NewSystemClock()
	bank := pattern.NewBank()

	// Pattern store: reload the latest bank if one was saved, otherwise
	// seed a basic beat so play is audible immediately.
	dir, err := pattern.DefaultDir()
	if err != nil {
		fmt.Printf("pattern dir: %v\n", err)
		os.Exit(1)
	}
	store := pattern.NewStore(dir)
	if err := store.Load(bank, ""); err != nil {
		seedDemoBeat(bank)
	}

	backend, closeBackend, err := buildBackend(clock, cfg)
	if err != nil {
		fmt.Printf("backend: %v\n", err)
		os.Exit(1)
	}
	defer closeBackend()

	eng, err := engine.New(engine.Options{
		Clock:       clock,
		Backend:     backend,
		Patterns:    bank,
		Subdivision: cfg.Engine.Subdivision,
		Tempo:       cfg.Engine.LastTempo,
	})
	if err != nil {
		fmt.Printf("engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	switch cfg.Engine.Profile {
	case config.ProfileLatency:
		eng.OptimizeLatency()
	case config.ProfileStability:
		eng.OptimizeStability()
	}

	m := tui.NewModel(eng, bank, store)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Remember the tempo for next launch
	cfg.Engine.LastTempo = eng.Tempo()
	if err := cfg.Save(); err != nil {
		debug.Log("config", "save failed: %v", err)
	}
}

// buildBackend picks the MIDI bridge when a port is configured, the built-in
// audition voices otherwise.
func buildBackend(clock engine.Clock, cfg *config.Config) (engine.Backend, func(), error) {
	if cfg.Output.MIDIPort != "" {
		out := midibridge.NewOut(clock, cfg.Output.MIDIPort, cfg.Output.Channel, pattern.GetKit(cfg.Output.Kit))
		return out, out.Close, nil
	}
	aud, err := audio.NewEngine(clock)
	if err != nil {
		return nil, nil, err
	}
	return aud, aud.Close, nil
}

// seedDemoBeat fills pattern 1 with a four-on-the-floor groove
func seedDemoBeat(b *pattern.Bank) {
	for _, s := range []int{0, 4, 8, 12} {
		b.ToggleStep(0, 0, s) // kick
	}
	for _, s := range []int{4, 12} {
		b.ToggleStep(0, 1, s) // snare
	}
	for s := 0; s < pattern.MaxSteps; s += 2 {
		b.ToggleStep(0, 2, s) // closed hats
	}
}
