package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"agentui/config"
)

const (
	modelListTimeout = 15 * time.Second
	modelCacheTTL    = time.Hour
)

// getModelsFromProvider fetches models with caching for cloud providers.
// When a cloud provider can't list models, the curated list from config is
// used instead.
func (m *Model) getModelsFromProvider(ctx context.Context, providerID string, p Provider) ([]ModelInfo, error) {
	switch providerID {
	case "ollama":
		// Local and cheap: always fetch fresh
		models, err := p.ListModels(ctx)
		if err != nil {
			return nil, err
		}
		for i := range models {
			models[i].Provider = "ollama"
			if models[i].InternalName == "" {
				models[i].InternalName = models[i].Name
			}
		}
		return models, nil

	default:
		if cached, ok := m.ModelCache[providerID]; ok && time.Now().Before(m.CacheExpiry[providerID]) {
			if config.DebugLog != nil {
				config.DebugLog.Debug("using cached models", "provider", providerID)
			}
			return cached, nil
		}

		models, err := p.ListModels(ctx)
		if err != nil || len(models) == 0 {
			if curated := m.curatedModels(providerID); len(curated) > 0 {
				if config.DebugLog != nil {
					config.DebugLog.Warn("falling back to configured models", "provider", providerID, "err", err)
				}
				return curated, nil
			}
			if err == nil {
				err = fmt.Errorf("provider %s returned no models", providerID)
			}
			return nil, err
		}

		m.ModelCache[providerID] = models
		m.CacheExpiry[providerID] = time.Now().Add(modelCacheTTL)
		return models, nil
	}
}

func (m *Model) curatedModels(providerID string) []ModelInfo {
	if m.Config == nil {
		return nil
	}
	pc, ok := m.Config.Provider(providerID)
	if !ok {
		return nil
	}
	models := make([]ModelInfo, 0, len(pc.Models))
	for _, name := range pc.Models {
		display := name
		if providerID == "openrouter" {
			if idx := strings.Index(name, "/"); idx != -1 {
				display = name[idx+1:]
			}
		}
		models = append(models, ModelInfo{Name: display, Provider: providerID, InternalName: name})
	}
	return models
}

// AggregateAllModels fetches models from every configured provider. One
// failing provider does not hide the others; an error is only returned when
// nothing could be listed.
func (m *Model) AggregateAllModels(ctx context.Context) ([]ModelInfo, error) {
	var all []ModelInfo
	var errs []error

	ids := make([]string, 0, len(m.Providers))
	for id := range m.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		models, err := m.getModelsFromProvider(ctx, id, m.Providers[id])
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Warn("failed to fetch models", "provider", id, "err", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		all = append(all, models...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Provider != all[j].Provider {
			return all[i].Provider < all[j].Provider
		}
		return all[i].Name < all[j].Name
	})

	if len(all) == 0 && len(errs) > 0 {
		return nil, NewError(KindTransport, "list models", errors.Join(errs...))
	}
	return all, nil
}

// FetchAllModels retrieves models from all enabled providers.
func (m *Model) FetchAllModels() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelListTimeout)
		defer cancel()

		models, err := m.AggregateAllModels(ctx)
		return ModelsListMsg{Models: models, Err: err}
	}
}

// ClearModelCache clears the cache of one provider, or all when id is empty.
func (m *Model) ClearModelCache(providerID string) {
	if providerID == "" {
		m.ModelCache = make(map[string][]ModelInfo)
		m.CacheExpiry = make(map[string]time.Time)
		return
	}
	delete(m.ModelCache, providerID)
	delete(m.CacheExpiry, providerID)
}

// DefaultModelIndex returns the index of the configured default model in
// models, or 0.
func (m *Model) DefaultModelIndex(models []ModelInfo) int {
	if m.Config == nil {
		return 0
	}
	for i, info := range models {
		if info.Provider == m.Config.DefaultProvider && info.InternalName == m.Config.DefaultModel {
			return i
		}
	}
	return 0
}

// RememberModel saves the selection as next launch's default.
func (m *Model) RememberModel() {
	if m.Config == nil || m.Selected.IsZero() {
		return
	}
	if err := config.SaveLastModel(m.Config.DataDir(), m.Selected.ProviderID, m.Selected.Model); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Warn("failed to save last model", "err", err)
		}
		return
	}
	m.Config.DefaultProvider = m.Selected.ProviderID
	m.Config.DefaultModel = m.Selected.Model
}
