package domain

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// SynthProfile describes the placeholder seismic table used when the live
// catalog is unusable. Ranges are uniform and inclusive of the lower bound.
type SynthProfile struct {
	Name     string
	Events   int
	MagMin   float64
	MagMax   float64
	DepthMin float64
	DepthMax float64
	Spacing  time.Duration
}

var (
	// ProfileCalm matches the quiet-caldera deployment.
	ProfileCalm = SynthProfile{
		Name: "calm", Events: 20,
		MagMin: 0.5, MagMax: 1.3,
		DepthMin: 0.8, DepthMax: 3.0,
		Spacing: 3 * time.Hour,
	}

	// ProfileActive matches the unrest deployment.
	ProfileActive = SynthProfile{
		Name: "active", Events: 20,
		MagMin: 1.0, MagMax: 3.0,
		DepthMin: 1.0, DepthMax: 5.0,
		Spacing: 3 * time.Hour,
	}
)

// ProfileByName resolves a built-in profile.
func ProfileByName(name string) (SynthProfile, error) {
	switch name {
	case ProfileCalm.Name:
		return ProfileCalm, nil
	case ProfileActive.Name:
		return ProfileActive, nil
	default:
		return SynthProfile{}, fmt.Errorf("unknown synthetic profile %q", name)
	}
}

// Validate rejects profiles that could yield an empty or inverted table.
func (p SynthProfile) Validate() error {
	switch {
	case p.Events < 1:
		return errors.New("synthetic profile needs at least one event")
	case p.MagMax < p.MagMin:
		return errors.New("synthetic magnitude range is inverted")
	case p.DepthMin < 0 || p.DepthMax < p.DepthMin:
		return errors.New("synthetic depth range is invalid")
	case p.Spacing <= 0:
		return errors.New("synthetic spacing must be positive")
	}
	return nil
}

// Synthesizer generates placeholder seismic tables. It is safe for concurrent use.
type Synthesizer struct {
	profile SynthProfile
	mu      sync.Mutex
	rng     *rand.Rand
}

// NewSynthesizer creates a synthesizer for a validated profile. A zero seed
// draws a random one.
func NewSynthesizer(profile SynthProfile, seed uint64) (*Synthesizer, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &Synthesizer{profile: profile, rng: newRand(seed)}, nil
}

// Profile returns the profile in use.
func (s *Synthesizer) Profile() SynthProfile { return s.profile }

// Synthesize returns profile.Events rows spaced profile.Spacing apart, oldest
// first, with the last row at the current time.
func (s *Synthesizer) Synthesize() SeismicTable {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profile
	end := now()
	events := make([]SeismicEvent, p.Events)
	for i := range events {
		events[i] = SeismicEvent{
			Time:      end.Add(-time.Duration(p.Events-1-i) * p.Spacing),
			Magnitude: p.MagMin + s.rng.Float64()*(p.MagMax-p.MagMin),
			DepthKm:   p.DepthMin + s.rng.Float64()*(p.DepthMax-p.DepthMin),
		}
	}
	return SeismicTable{Events: events, Synthetic: true}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
