package config

import "sync"

// Cache loads settings from a provider once, applies environment
// overrides and validation, and hands out copies thereafter.
type Cache struct {
	provider SettingsProvider
	lookup   LookupFunc

	mu       sync.Mutex
	loaded   bool
	settings *Settings
	err      error
}

// NewCache wraps provider. A nil lookup reads the process environment.
func NewCache(provider SettingsProvider, lookup LookupFunc) *Cache {
	return &Cache{
		provider: provider,
		lookup:   lookup,
	}
}

// Get returns the settings, loading them on first use
func (c *Cache) Get() (*Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.settings, c.err = Load(c.provider, c.lookup)
		c.loaded = true
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.settings.Clone(), nil
}

// Reset drops the cached settings so the next Get reloads them
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = false
	c.settings = nil
	c.err = nil
}

// Load reads provider, applies environment overrides and validates the result
func Load(provider SettingsProvider, lookup LookupFunc) (*Settings, error) {
	settings, err := provider.LoadSettings()
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(settings, lookup); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
