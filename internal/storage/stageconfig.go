package storage

import (
	"strings"

	"cfp/internal/emitter"
	"cfp/internal/journal"
	"cfp/internal/keys"
	"cfp/internal/model"
)

const untitledStep = "Untitled step"

// StageConfig loads the fixed-stage configuration for one product. The
// first read of a product with no prior config materializes the template
// and persists it before returning; corrupt or empty payloads are healed
// the same way. A blank product id returns a template clone without
// persisting anything.
func (s *Store) StageConfig(shopID, productID string) ([]model.StageConfig, error) {
	sid := s.ensureShopID(shopID)
	pid := strings.TrimSpace(productID)

	// A stage config keyed to a blank product id is invalid; purge on sight.
	s.purgeBlankStageConfigKey(sid)

	if pid == "" {
		return model.CloneStageTemplate(), nil
	}

	key := keys.StageConfig(sid, pid)
	var cfg []model.StageConfig
	outcome := s.loadJSON(key, &cfg)
	if outcome == DecodeValid && len(cfg) > 0 {
		for _, stage := range cfg {
			if _, err := s.EnsureStepOrderFromSteps(sid, pid, stage.ID, stage.Steps); err != nil {
				return nil, err
			}
		}
		return cfg, nil
	}
	return s.materializeStageConfig(sid, pid)
}

func (s *Store) materializeStageConfig(sid, pid string) ([]model.StageConfig, error) {
	tpl := model.CloneStageTemplate()
	if err := s.saveJSON(keys.StageConfig(sid, pid), tpl); err != nil {
		return nil, err
	}
	for _, stage := range tpl {
		if _, err := s.EnsureStepOrderFromSteps(sid, pid, stage.ID, stage.Steps); err != nil {
			return nil, err
		}
	}
	s.notifyStageConfigChanged(sid, pid, tpl)
	return tpl, nil
}

// SaveStageConfig replaces the product's configuration. An empty config
// falls back to the template; a blank product id is a no-op.
func (s *Store) SaveStageConfig(shopID, productID string, cfg []model.StageConfig) error {
	sid := s.ensureShopID(shopID)
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil
	}
	if len(cfg) == 0 {
		cfg = model.CloneStageTemplate()
	}
	if err := s.saveJSON(keys.StageConfig(sid, pid), cfg); err != nil {
		return err
	}
	for _, stage := range cfg {
		if _, err := s.EnsureStepOrderFromSteps(sid, pid, stage.ID, stage.Steps); err != nil {
			return err
		}
	}
	s.notifyStageConfigChanged(sid, pid, cfg)
	return nil
}

// ResetStageConfig restores the template for one product.
func (s *Store) ResetStageConfig(shopID, productID string) ([]model.StageConfig, error) {
	sid := s.ensureShopID(shopID)
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return model.CloneStageTemplate(), nil
	}
	return s.materializeStageConfig(sid, pid)
}

// AddStep appends a user step to one stage and returns the new config.
// Unknown stages leave the config untouched.
func (s *Store) AddStep(shopID, productID, stageID, label, tag string) ([]model.StageConfig, error) {
	return s.editStage(shopID, productID, stageID, func(stage *model.StageConfig) bool {
		step := model.UserStep{ID: newID("step"), Label: strings.TrimSpace(label), Tag: tag}
		if step.Label == "" {
			step.Label = untitledStep
		}
		stage.Steps = append(stage.Steps, step)
		return true
	})
}

// RenameStep relabels one step. Unknown stages or steps are no-ops.
func (s *Store) RenameStep(shopID, productID, stageID, stepID, newLabel string) ([]model.StageConfig, error) {
	return s.editStage(shopID, productID, stageID, func(stage *model.StageConfig) bool {
		for i := range stage.Steps {
			if stage.Steps[i].ID == stepID {
				label := strings.TrimSpace(newLabel)
				if label == "" {
					label = untitledStep
				}
				stage.Steps[i].Label = label
				return true
			}
		}
		return false
	})
}

// DeleteStep removes one step. Unknown stages or steps are no-ops.
func (s *Store) DeleteStep(shopID, productID, stageID, stepID string) ([]model.StageConfig, error) {
	return s.editStage(shopID, productID, stageID, func(stage *model.StageConfig) bool {
		kept := stage.Steps[:0]
		for _, st := range stage.Steps {
			if st.ID != stepID {
				kept = append(kept, st)
			}
		}
		if len(kept) == len(stage.Steps) {
			return false
		}
		stage.Steps = kept
		return true
	})
}

func (s *Store) editStage(shopID, productID, stageID string, mutate func(*model.StageConfig) bool) ([]model.StageConfig, error) {
	sid := s.ensureShopID(shopID)
	pid := strings.TrimSpace(productID)
	cfg, err := s.StageConfig(sid, pid)
	if err != nil {
		return nil, err
	}
	for i := range cfg {
		if cfg[i].ID == stageID {
			if !mutate(&cfg[i]) {
				return cfg, nil
			}
			if err := s.SaveStageConfig(sid, pid, cfg); err != nil {
				return nil, err
			}
			return model.CloneStages(cfg), nil
		}
	}
	return cfg, nil
}

// removeStageConfigForProduct drops the current key plus the legacy
// doubly-prefixed shapes left by earlier naming schemes.
func (s *Store) removeStageConfigForProduct(sid, pid string) {
	s.purgeBlankStageConfigKey(sid)
	pid = strings.TrimSpace(pid)
	if pid == "" {
		return
	}
	s.port.Remove(keys.StageConfig(sid, pid))
	s.port.Remove("stage_config::" + pid)
	s.port.Remove("stage_config::" + keys.DefaultShopID + ":" + pid)
}

func (s *Store) purgeBlankStageConfigKey(sid string) {
	blank := keys.StageConfig(sid, "")
	if _, ok := s.port.Get(blank); ok {
		s.port.Remove(blank)
	}
}

func (s *Store) notifyStageConfigChanged(sid, pid string, cfg []model.StageConfig) {
	s.bus.EmitStageConfigChanged(emitter.StageConfigChanged{
		ShopID:    sid,
		ProductID: pid,
		Cfg:       model.CloneStages(cfg),
	})
	s.appendJournal(journal.Entry{
		Type:      "stagecfg:changed",
		ShopID:    sid,
		ProductID: pid,
		TS:        nowUnix(),
	})
}
