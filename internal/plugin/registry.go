// Package plugin is the extension point for operator-provided commands.
// Plugins register commands against the dispatcher through a narrow API
// carrying only the capabilities they need; they are never handed the
// server's internals.
package plugin

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dyadamorgan/openprivnet/internal/channel"
	"github.com/dyadamorgan/openprivnet/internal/wire"
)

// Caller is the view of the invoking session handed to plugin commands.
type Caller interface {
	Nickname() string
	Channel() string
}

// SendFunc delivers a reply to the invoking session.
type SendFunc func(message string) error

// Handler runs a plugin command with the remainder of the input line as args.
type Handler func(caller Caller, args string, send SendFunc) error

// API is the capability set handed to a plugin when it initializes.
type API struct {
	// Channels allows plugins to inspect and broadcast to channels.
	Channels *channel.Registry
	// Codec encodes messages for anything a plugin sends outside of the
	// provided SendFunc.
	Codec *wire.Codec
	// Logger for the plugin's own output.
	Logger *logrus.Logger

	register func(name string, handler Handler)
}

// RegisterCommand binds a /-prefixed command name to a handler. Later
// registrations of the same name win, which makes reloads idempotent.
func (a *API) RegisterCommand(name string, handler Handler) {
	a.register(name, handler)
}

// Plugin is implemented by every loadable extension.
type Plugin interface {
	// Name returns a uniquely identifying string.
	Name() string
	// Init registers the plugin's commands. Returning an error causes the
	// plugin to be skipped; it is never fatal to the server.
	Init(api *API) error
}

// Registry owns the plugin command table consulted by the dispatcher after
// built-in and admin commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Handler
	plugins  []Plugin

	channels *channel.Registry
	codec    *wire.Codec
	logger   *logrus.Logger
}

func NewRegistry(channels *channel.Registry, codec *wire.Codec, logger *logrus.Logger) *Registry {
	return &Registry{
		commands: make(map[string]Handler),
		channels: channels,
		codec:    codec,
		logger:   logger,
	}
}

// Use adds a plugin to the set initialized on the next Reload.
func (r *Registry) Use(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = append(r.plugins, p)
}

// Reload clears the command table and re-initializes every registered
// plugin. A plugin whose Init fails is logged and skipped. Returns the
// number of plugins that loaded successfully.
func (r *Registry) Reload() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = make(map[string]Handler)

	loaded := 0
	for _, p := range r.plugins {
		api := &API{
			Channels: r.channels,
			Codec:    r.codec,
			Logger:   r.logger,
			register: func(name string, handler Handler) {
				r.commands[name] = handler
			},
		}

		if err := p.Init(api); err != nil {
			r.logger.Warnf("error loading plugin %s: %v", p.Name(), err)
			continue
		}
		r.logger.Infof("loaded plugin %s", p.Name())
		loaded++
	}
	return loaded
}

// Lookup returns the handler for a command name, if any plugin registered it.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.commands[name]
	return handler, ok
}

// Dispatch runs the plugin command bound to name.
func (r *Registry) Dispatch(name string, caller Caller, args string, send SendFunc) error {
	handler, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("no plugin command %s", name)
	}
	return handler(caller, args, send)
}
