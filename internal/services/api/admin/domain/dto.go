// Package domain holds DTOs for the rollout operator surface
package domain

// OverrideInput pins a module's routing regardless of configured flags
type OverrideInput struct {
	Module  string `json:"module" validate:"required,oneof=ALL AUTH TEAMS PROJECTS TASKS COMMENTS INVENTORY" example:"TASKS"`
	Enabled *bool  `json:"enabled" validate:"required" example:"false"`
}

// ClearOverrideInput removes one module's override
type ClearOverrideInput struct {
	Module string `json:"module" validate:"required,oneof=ALL AUTH TEAMS PROJECTS TASKS COMMENTS INVENTORY" example:"TASKS"`
}

// ShadowInput reconfigures one module's shadow sampling
type ShadowInput struct {
	Module     string  `json:"module" validate:"required,oneof=AUTH TEAMS PROJECTS TASKS COMMENTS INVENTORY" example:"TASKS"`
	Enabled    bool    `json:"enabled" example:"true"`
	SampleRate float64 `json:"sample_rate" validate:"gte=0,lte=1" example:"0.1"`
}

// LatencyQuery selects a latency stats slice
type LatencyQuery struct {
	Module    string `json:"module" validate:"required" example:"TASKS"`
	Operation string `json:"operation" validate:"required" example:"tasks.list"`
	Side      string `json:"side,omitempty" validate:"omitempty,oneof=primary shadow" example:"primary"`
}

// MetricsEnabledInput flips the recording gate
type MetricsEnabledInput struct {
	Enabled bool `json:"enabled" example:"true"`
}

// FlagsResponse is the resolved flag state plus active overrides
type FlagsResponse struct {
	Enabled   []string        `json:"enabled"`
	Disabled  []string        `json:"disabled"`
	Overrides map[string]bool `json:"overrides"`
}
