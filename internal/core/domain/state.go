package domain

import "time"

// EngineState is the single observable state object exposed to the UI
// layer. Every publish delivers a complete snapshot; consumers never
// observe a half-updated aggregate set.
type EngineState struct {
	Scope        Scope               `json:"scope"`
	SelectedDate string              `json:"selected_date"`
	Loading      bool                `json:"loading"`
	Syncing      bool                `json:"syncing"`
	Offline      bool                `json:"offline"`
	Error        string              `json:"error,omitempty"`
	LastSync     *time.Time          `json:"last_sync,omitempty"`
	Stats        *ComputedStatistics `json:"stats,omitempty"`
}
