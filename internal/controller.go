package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/dyadamorgan/openprivnet/internal/channel"
	"github.com/dyadamorgan/openprivnet/internal/core"
	"github.com/dyadamorgan/openprivnet/internal/core/data"
	"github.com/dyadamorgan/openprivnet/internal/moderation"
	"github.com/dyadamorgan/openprivnet/internal/plugin"
	"github.com/dyadamorgan/openprivnet/internal/server"
	"github.com/dyadamorgan/openprivnet/internal/wire"
)

// Controller is the main entrypoint for the server. It's responsible for
// initializing the shared resources (logging, database, registries), wiring
// them into the chat server and the operator console, and launching both.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	db     *gorm.DB
	wg     sync.WaitGroup
}

func (c *Controller) Start(ctx context.Context) error {
	defer c.Shutdown()

	var err error
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}

	// A missing or corrupt key while encryption is enabled is fatal before
	// any connection is accepted.
	key, err := c.Config.EncryptionKey()
	if err != nil {
		return err
	}
	codec := wire.NewCodec(key)

	c.db, err = data.Initialize(c.Config.Database.Filename, c.logger.Level == logrus.DebugLevel)
	if err != nil {
		return err
	}

	channels, err := channel.NewRegistry(c.db)
	if err != nil {
		return err
	}

	mods, err := moderation.NewStore(c.db, c.Config.Moderation.WarnLimit)
	if err != nil {
		return err
	}

	plugins := plugin.NewRegistry(channels, codec, c.logger)
	plugins.Use(plugin.Hello{})
	plugins.Reload()

	chatServer := &server.Server{
		Name:       "CHAT",
		Config:     c.Config,
		Logger:     c.logger,
		Channels:   channels,
		Moderation: mods,
		Plugins:    plugins,
		Codec:      codec,
	}
	if err := chatServer.Start(ctx, &c.wg); err != nil {
		return err
	}

	// The console blocks on stdin and cannot be cancelled; it runs as a
	// daemon task and /exit terminates the process directly.
	console := &Console{Channels: channels, Logger: c.logger}
	go console.Run()

	c.wg.Wait()
	return ctx.Err()
}

func (c *Controller) Shutdown() {
	c.wg.Wait()
	if c.db != nil {
		if err := data.Shutdown(c.db); err != nil {
			c.logger.Warnf("error closing database: %v", err)
		}
	}
}
