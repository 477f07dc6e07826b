package llm

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// ProviderConfig is what a factory needs to build one adapter.
type ProviderConfig struct {
	ID           ProviderID
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	Options      map[string]string
}

// Option returns Options[key] or def when unset.
func (c ProviderConfig) Option(key, def string) string {
	if v, ok := c.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// BaseURLOr returns BaseURL or the descriptor default.
func (c ProviderConfig) BaseURLOr(def string) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return def
}

// Client returns HTTPClient or a fresh default client.
func (c ProviderConfig) Client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{}
}

type ProviderFactory struct{}

func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

func (f *ProviderFactory) CreateProvider(cfg ProviderConfig) (Provider, error) {
	factoryFunc, err := Get(cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("factory lookup failed for provider %s: %w", cfg.ID, err)
	}

	if cfg.BaseURL == "" {
		if d, ok := Lookup(cfg.ID); ok {
			cfg.BaseURL = d.BaseURL
		}
	}

	return factoryFunc(cfg)
}

type Factory func(cfg ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[ProviderID]Factory)
)

func Register(id ProviderID, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", id))
	}
	factories[id] = f
}

func Get(id ProviderID) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("provider factory not found for: %s", id)
	}
	return f, nil
}

// Registered lists every provider with a factory, sorted by id.
func Registered() []ProviderID {
	mu.RLock()
	defer mu.RUnlock()
	ids := make([]ProviderID, 0, len(factories))
	for id := range factories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
