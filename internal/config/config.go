// Package config provides a configuration manager that loads and
// watches the JSON environments file declaring the TMS and broker
// integration targets.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/brokerlink/loadsync/internal/broker"
	"github.com/brokerlink/loadsync/internal/mcleod"
)

// Webhooks holds the notification endpoints of one environment, one per
// sweep. An empty URL disables that sweep for the environment.
type Webhooks struct {
	PreShipment string `json:"pre_shipment"`
	PrePickup   string `json:"pre_pickup"`
	InTransit   string `json:"in_transit"`
}

// Environment is one TMS-to-broker integration target, e.g. production
// or the TRN training instance.
type Environment struct {
	Name     string        `json:"name"`
	TMS      mcleod.Config `json:"tms"`
	Broker   broker.Config `json:"broker"`
	Webhooks Webhooks      `json:"webhooks"`
}

// Conf represents the environments file structure.
type Conf struct {
	Environments []Environment `json:"environments"`
}

// Provider is an interface that defines methods to access configuration values.
type Provider interface {
	Environments() []Environment
}

// Manager is a struct that manages the environments configuration.
type Manager struct {
	config     Conf
	lock       sync.RWMutex
	configPath string

	log *slog.Logger
}

type options struct {
	Logger *slog.Logger
}

// Options represents an optional function to override Manager default values.
type Options func(*options)

// New creates a new configuration manager with the specified path.
func New(path string, args ...Options) *Manager {
	opts := options{
		Logger: slog.Default(),
	}

	for _, opt := range args {
		opt(&opts)
	}

	return &Manager{
		configPath: path,
		log:        opts.Logger,
	}
}

// Load reads the environments file and updates the internal state.
// Environments without a name or TMS base URL are rejected.
func (cm *Manager) Load() error {
	file, err := os.Open(cm.configPath)
	if err != nil {
		return fmt.Errorf("opening environments file: %w", err)
	}
	defer file.Close()

	var newConfig Conf
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&newConfig); err != nil {
		return fmt.Errorf("decoding environments JSON: %w", err)
	}
	for i, env := range newConfig.Environments {
		if env.Name == "" {
			return fmt.Errorf("environment %d has no name", i)
		}
		if env.TMS.BaseURL == "" {
			return fmt.Errorf("environment %q has no TMS base URL", env.Name)
		}
	}

	cm.lock.Lock()
	cm.config = newConfig
	cm.lock.Unlock()

	cm.log.Info("Environments configuration loaded", "environments", len(newConfig.Environments))
	return nil
}

// Watch starts watching the environments file for changes.
//
// It returns two channels: one for configuration changes which result in a successful load and another for unrecoverable watcher errors.
func (cm *Manager) Watch(ctx context.Context) (changes <-chan struct{}, errors <-chan error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %v", err)
	}

	configDir, _ := filepath.Split(cm.configPath)
	if configDir == "" {
		configDir = "."
	}
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("failed to add directory %s to watcher: %v", configDir, err)
	}

	cm.log.Info("Watching environments directory", "dir", configDir)
	changesCh := make(chan struct{}, 1)
	errorsCh := make(chan error, 1)

	// Initial load of the configuration
	if err := cm.Load(); err != nil {
		cm.log.Warn("Error loading initial environments config", "err", err)
	}

	go func() {
		defer close(changesCh)
		defer close(errorsCh)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				cm.log.Info("Environments watcher stopped")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					errorsCh <- fmt.Errorf("watcher events channel closed unexpectedly")
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}

				if event.Name != cm.configPath {
					continue
				}

				cm.log.Debug("Environments file changed. Reloading...")
				if err := cm.Load(); err != nil {
					cm.log.Warn("Error reloading environments config", "err", err)
					continue
				}

				select {
				case changesCh <- struct{}{}:
				default:
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					errorsCh <- fmt.Errorf("watcher errors channel closed unexpectedly")
					return
				}
				cm.log.Warn("Watcher error", "err", err)
			}
		}
	}()

	return changesCh, errorsCh, nil
}

// Environments returns the configured integration targets.
func (cm *Manager) Environments() []Environment {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	return cm.config.Environments
}

// Environment returns the named environment, or false when it is not
// configured.
func (cm *Manager) Environment(name string) (Environment, bool) {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	for _, env := range cm.config.Environments {
		if env.Name == name {
			return env, true
		}
	}
	return Environment{}, false
}
