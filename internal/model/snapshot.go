package model

// FeedResult describes what a feeding actually achieved.
type FeedResult struct {
	Meal           string  `json:"meal"`
	RequestedBytes uint64  `json:"requested_bytes"`
	GrantedBytes   uint64  `json:"granted_bytes"`
	HungerRelief   float64 `json:"hunger_relief"`
	Favorite       bool    `json:"favorite,omitempty"`
	Starved        bool    `json:"starved,omitempty"`
}

// Partial reports a grant that the governor clamped below the request.
func (r FeedResult) Partial() bool {
	return r.GrantedBytes > 0 && r.GrantedBytes < r.RequestedBytes
}

// Stats are the session counters kept by the pet.
type Stats struct {
	Feedings        int    `json:"feedings"`
	BytesEaten      uint64 `json:"bytes_eaten"`
	PeakBytes       uint64 `json:"peak_bytes"`
	BytesStarvedOff uint64 `json:"bytes_starved_off"`
}

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	Stage          Stage       `json:"stage"`
	Mood           Mood        `json:"mood"`
	Hunger         float64     `json:"hunger"`
	CommittedBytes uint64      `json:"committed_bytes"`
	Personality    Personality `json:"personality"`
	Terminated     bool        `json:"terminated"`
	FreeBytes      uint64      `json:"free_bytes"`
	LowMemory      bool        `json:"low_memory"`
	Stats          Stats       `json:"stats"`
}
