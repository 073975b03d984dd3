package model

import (
	"math/rand/v2"
	"testing"
)

func TestStageFor(t *testing.T) {
	tests := []struct {
		name  string
		bytes uint64
		want  Stage
	}{
		{"empty", 0, StageBaby},
		{"baby ceiling", 50 * MiB, StageBaby},
		{"child", 51 * MiB, StageChild},
		{"teen", 151 * MiB, StageTeen},
		{"adult", 400 * MiB, StageAdult},
		{"chubby", 501 * MiB, StageChubby},
		{"fat", 1200 * MiB, StageFat},
		{"huge ceiling", 2000 * MiB, StageHuge},
		{"gigantic", 2001 * MiB, StageGigantic},
		{"one byte over child", 150*MiB + 1, StageTeen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StageFor(tt.bytes); got != tt.want {
				t.Errorf("StageFor(%d) = %v, want %v", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestMoodFor(t *testing.T) {
	tests := []struct {
		name      string
		hunger    float64
		lowMemory bool
		want      Mood
	}{
		{"fed", 10, false, MoodHappy},
		{"peckish", 40, false, MoodContent},
		{"hungry", 80, false, MoodUnhappy},
		{"starving", 95, false, MoodDistressed},
		{"low memory overrides hunger", 0, true, MoodDistressed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MoodFor(tt.hunger, tt.lowMemory); got != tt.want {
				t.Errorf("MoodFor(%v, %v) = %v, want %v", tt.hunger, tt.lowMemory, got, tt.want)
			}
		})
	}
}

func TestPersonalityRoundTrip(t *testing.T) {
	for _, p := range Personalities() {
		got, err := ParsePersonality(p.ID())
		if err != nil {
			t.Fatalf("parse %q: %v", p.ID(), err)
		}
		if got != p {
			t.Errorf("expected %v, got %v", p, got)
		}
		if p.Traits().FavoriteBytes == 0 {
			t.Errorf("%v has no favorite meal", p)
		}
	}

	if _, err := ParsePersonality("dragon"); err == nil {
		t.Error("expected error for unknown personality")
	}
}

func TestRandomPersonalityCoversSet(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	seen := map[Personality]bool{}
	for i := 0; i < 200; i++ {
		seen[RandomPersonality(r)] = true
	}
	if len(seen) != len(Personalities()) {
		t.Errorf("expected all %d personalities, saw %d", len(Personalities()), len(seen))
	}
}

func TestMealName(t *testing.T) {
	if got := MealName(10 * MiB); got != "Tiny Snack" {
		t.Errorf("expected Tiny Snack, got %q", got)
	}
	if got := MealName(50 * MiB); got != "Meal" {
		t.Errorf("expected Meal, got %q", got)
	}
	if got := MealName(900 * MiB); got != "Mega Gorge" {
		t.Errorf("expected Mega Gorge, got %q", got)
	}
}
