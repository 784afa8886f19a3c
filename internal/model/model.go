// Package model holds the persisted entity shapes. Everything is stored
// JSON-encoded under the key scheme; fields decode leniently so that
// historically-shaped payloads still load.
package model

// Role of an account.
type Role string

const (
	RoleFarmer   Role = "Farmer"
	RoleConsumer Role = "Consumer"
	RoleNone     Role = "None"
)

// AccountMeta is one entry of the global account registry, keyed by
// account name. Password is cleartext, local-only.
type AccountMeta struct {
	Role          Role     `json:"role"`
	Password      string   `json:"password,omitempty"`
	ShopIDs       []string `json:"shopIds,omitempty"`
	CurrentShopID string   `json:"currentShopId,omitempty"`
}

// Shop is one entry of the global shop registry, keyed by shop id.
type Shop struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// Product carries a non-recyclable string primary key plus a dense,
// UI-facing serial number. CategoryID is empty when unassigned.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SerialNo   int    `json:"serialNo,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`

	// LegacyNumID survives from the numeric-id era for ident lookup only.
	LegacyNumID string `json:"_legacyNumId,omitempty"`
}

// Category groups products within one shop. Order is the sort rank.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Record is one emission entry of a product's life cycle.
type Record struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	StageID   string  `json:"stageId"`
	StepID    string  `json:"stepId"`
	StepLabel string  `json:"stepLabel,omitempty"`
	Tag       string  `json:"tag,omitempty"`
	Material  string  `json:"material"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	Emission  float64 `json:"emission"`
	Timestamp int64   `json:"timestamp,omitempty"`
	UpdatedAt int64   `json:"updatedAt,omitempty"`
}

// UserStep is a user-defined step inside a fixed stage. The label is
// free-form; the tag must be one of the stage's allowed tags.
type UserStep struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Tag   string `json:"tag,omitempty"`
}

// StageConfig is one fixed stage holding the user's steps.
type StageConfig struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	AllowedTags []string   `json:"allowedTags"`
	Steps       []UserStep `json:"steps"`
}

// Note is a per-account scratchpad entry.
type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Pinned    bool   `json:"pinned"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Fixed stage ids. Stages can neither be added nor renamed; only their
// step lists are user-maintained.
const (
	StageRaw          = "raw"
	StageManufacture  = "manufacture"
	StageDistribution = "distribution"
	StageUse          = "use"
	StageDisposal     = "disposal"
)

// FixedStageTemplates is the default configuration materialized on first
// read of a product with no prior config.
var FixedStageTemplates = []StageConfig{
	{
		ID:    StageRaw,
		Title: "Raw material",
		AllowedTags: []string{
			"seeds/seedlings", "pesticide", "fertilizer", "other inputs",
			"land preparation", "planting", "cultivation", "harvest",
			"packaging materials", "waste", "energy/resources", "transport",
		},
		Steps: []UserStep{},
	},
	{
		ID:    StageManufacture,
		Title: "Manufacturing",
		AllowedTags: []string{
			"cold storage", "primary processing", "semi-finished storage",
			"secondary processing", "packaging", "shipping",
			"transport", "waste", "energy/resources",
		},
		Steps: []UserStep{},
	},
	{
		ID:          StageDistribution,
		Title:       "Distribution & sales",
		AllowedTags: []string{"point of sale", "transport"},
		Steps:       []UserStep{},
	},
	{
		ID:          StageUse,
		Title:       "Use",
		AllowedTags: []string{"consumer use", "energy/resources"},
		Steps:       []UserStep{},
	},
	{
		ID:          StageDisposal,
		Title:       "Disposal",
		AllowedTags: []string{"recycling", "incineration", "landfill", "energy/resources"},
		Steps:       []UserStep{},
	},
}

// CloneStageTemplate returns a deep copy of FixedStageTemplates safe for
// callers to mutate.
func CloneStageTemplate() []StageConfig {
	out := make([]StageConfig, len(FixedStageTemplates))
	for i, s := range FixedStageTemplates {
		out[i] = CloneStage(s)
	}
	return out
}

// CloneStage deep-copies one stage.
func CloneStage(s StageConfig) StageConfig {
	c := s
	c.AllowedTags = append([]string(nil), s.AllowedTags...)
	c.Steps = append([]UserStep(nil), s.Steps...)
	if c.Steps == nil {
		c.Steps = []UserStep{}
	}
	return c
}

// CloneStages deep-copies a stage list.
func CloneStages(cfg []StageConfig) []StageConfig {
	out := make([]StageConfig, len(cfg))
	for i, s := range cfg {
		out[i] = CloneStage(s)
	}
	return out
}
