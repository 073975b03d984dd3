// Package model defines the core pet data types.
package model

import (
	"fmt"
	"math/rand/v2"
)

// MiB is one mebibyte. Stage boundaries and meal sizes are expressed in it.
const MiB = 1 << 20

// Stage is the growth category derived from the reservoir size.
type Stage int

const (
	StageBaby Stage = iota
	StageChild
	StageTeen
	StageAdult
	StageChubby
	StageFat
	StageHuge
	StageGigantic
)

// stageCeilings holds the inclusive upper bound of each stage below Gigantic.
var stageCeilings = [...]uint64{
	50 * MiB,
	150 * MiB,
	300 * MiB,
	500 * MiB,
	1000 * MiB,
	1500 * MiB,
	2000 * MiB,
}

// StageFor maps a committed size to its stage.
func StageFor(committedBytes uint64) Stage {
	for i, ceiling := range stageCeilings {
		if committedBytes <= ceiling {
			return Stage(i)
		}
	}
	return StageGigantic
}

func (s Stage) String() string {
	switch s {
	case StageBaby:
		return "Baby"
	case StageChild:
		return "Child"
	case StageTeen:
		return "Teen"
	case StageAdult:
		return "Adult"
	case StageChubby:
		return "Chubby"
	case StageFat:
		return "Fat"
	case StageHuge:
		return "Huge"
	case StageGigantic:
		return "Gigantic"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Description is the one-line flavor text shown under the stage name.
func (s Stage) Description() string {
	switch s {
	case StageBaby:
		return "Just a tiny RAM nibbler"
	case StageChild:
		return "Growing and learning to eat properly"
	case StageTeen:
		return "Appetite increasing rapidly"
	case StageAdult:
		return "Fully grown and hungry"
	case StageChubby:
		return "Well-fed and happy"
	case StageFat:
		return "Perhaps a bit too well-fed"
	case StageHuge:
		return "An impressive specimen"
	case StageGigantic:
		return "The absolute unit of RAM consumption"
	}
	return ""
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Mood is derived from hunger and host memory pressure.
type Mood int

const (
	MoodHappy Mood = iota
	MoodContent
	MoodUnhappy
	MoodDistressed
)

// Hunger thresholds for mood transitions.
const (
	ContentHunger    = 40.0
	UnhappyHunger    = 80.0
	DistressedHunger = 95.0
	MaxHunger        = 100.0
)

// MoodFor is level-triggered: it looks only at the current values.
func MoodFor(hunger float64, lowMemory bool) Mood {
	switch {
	case lowMemory || hunger >= DistressedHunger:
		return MoodDistressed
	case hunger >= UnhappyHunger:
		return MoodUnhappy
	case hunger >= ContentHunger:
		return MoodContent
	default:
		return MoodHappy
	}
}

func (m Mood) String() string {
	switch m {
	case MoodHappy:
		return "Happy"
	case MoodContent:
		return "Content"
	case MoodUnhappy:
		return "Unhappy"
	case MoodDistressed:
		return "Distressed"
	}
	return fmt.Sprintf("Mood(%d)", int(m))
}

func (m Mood) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Personality is one of a fixed set of temperaments, chosen at birth.
type Personality int

const (
	Nibbler Personality = iota
	Glutton
	Gourmet
	Gremlin
)

// Traits are the fixed parameters carried by a personality.
type Traits struct {
	// FavoriteBytes is the size of the favorite meal.
	FavoriteBytes uint64
	// Efficiency scales hunger relief from the favorite meal.
	Efficiency float64
	// DecayMultiplier scales the metabolism rate.
	DecayMultiplier float64
	FoodName        string
}

var traits = map[Personality]Traits{
	Nibbler: {FavoriteBytes: 16 * MiB, Efficiency: 1.5, DecayMultiplier: 1.25, FoodName: "crumbs"},
	Glutton: {FavoriteBytes: 256 * MiB, Efficiency: 1.0, DecayMultiplier: 0.75, FoodName: "a banquet"},
	Gourmet: {FavoriteBytes: 42 * MiB, Efficiency: 2.0, DecayMultiplier: 1.0, FoodName: "exactly 42 MiB"},
	Gremlin: {FavoriteBytes: 128 * MiB, Efficiency: 0.8, DecayMultiplier: 1.5, FoodName: "loose pointers"},
}

var personalityIDs = map[Personality]string{
	Nibbler: "nibbler",
	Glutton: "glutton",
	Gourmet: "gourmet",
	Gremlin: "gremlin",
}

// Personalities lists every personality in declaration order.
func Personalities() []Personality {
	return []Personality{Nibbler, Glutton, Gourmet, Gremlin}
}

// RandomPersonality picks uniformly from the fixed set.
func RandomPersonality(r *rand.Rand) Personality {
	all := Personalities()
	if r == nil {
		return all[rand.IntN(len(all))]
	}
	return all[r.IntN(len(all))]
}

// ParsePersonality resolves a persisted personality id.
func ParsePersonality(id string) (Personality, error) {
	for p, s := range personalityIDs {
		if s == id {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown personality %q", id)
}

// ID is the stable identifier written to save records.
func (p Personality) ID() string {
	if id, ok := personalityIDs[p]; ok {
		return id
	}
	return fmt.Sprintf("personality-%d", int(p))
}

func (p Personality) Traits() Traits {
	return traits[p]
}

func (p Personality) String() string {
	return p.ID()
}

func (p Personality) MarshalText() ([]byte, error) {
	return []byte(p.ID()), nil
}

// Reaction is what the pet says after a meal.
func (p Personality) Reaction(m Mood) string {
	switch m {
	case MoodDistressed:
		return "FEED ME NOW!"
	case MoodUnhappy:
		if p == Gremlin {
			return "Took you long enough"
		}
		return "I needed that"
	}
	switch p {
	case Nibbler:
		return "Nom nom!"
	case Glutton:
		return "MORE MORE MORE!"
	case Gourmet:
		return "Finally, some good food"
	case Gremlin:
		return "Segmentation fault: hunger at 0x0"
	}
	return "Munch munch"
}

// MealName labels a feeding by its size.
func MealName(bytes uint64) string {
	mib := bytes / MiB
	switch {
	case mib <= 15:
		return "Tiny Snack"
	case mib <= 30:
		return "Snack"
	case mib <= 75:
		return "Meal"
	case mib <= 150:
		return "Big Meal"
	case mib <= 300:
		return "Feast"
	case mib <= 600:
		return "Banquet"
	default:
		return "Mega Gorge"
	}
}
