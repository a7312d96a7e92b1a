package internal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dyadamorgan/openprivnet/internal/channel"
)

// Console is the local operator control plane: a line-oriented loop over
// stdin for managing channels. It talks to the core exclusively through the
// channel registry's thread-safe interface.
type Console struct {
	Channels *channel.Registry
	Logger   *logrus.Logger
}

const consoleUsage = "console commands: /create <name>, /delete <name>, /list, /exit"

// Run blocks reading operator commands until stdin closes or /exit is given.
func (c *Console) Run() {
	fmt.Println(consoleUsage)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		command, args, _ := strings.Cut(line, " ")
		args = strings.TrimSpace(args)

		switch command {
		case "/create":
			c.create(args)
		case "/delete":
			c.delete(args)
		case "/list":
			for _, name := range c.Channels.List() {
				fmt.Println("#" + name)
			}
		case "/exit":
			fmt.Println("shutting down")
			os.Exit(0)
		default:
			fmt.Println(consoleUsage)
		}
	}
}

func (c *Console) create(name string) {
	if name == "" {
		fmt.Println("usage: /create <name>")
		return
	}

	err := c.Channels.Create(name)
	if errors.Is(err, channel.ErrChannelExists) {
		fmt.Printf("channel #%s already exists\n", name)
		return
	}
	if err != nil {
		c.Logger.Errorf("error creating channel %s: %v", name, err)
		return
	}
	fmt.Printf("channel #%s created\n", name)
}

func (c *Console) delete(name string) {
	if name == "" {
		fmt.Println("usage: /delete <name>")
		return
	}

	orphaned, err := c.Channels.Delete(name)
	if errors.Is(err, channel.ErrChannelNotFound) {
		fmt.Printf("channel #%s not found\n", name)
		return
	}
	if err != nil {
		c.Logger.Errorf("error deleting channel %s: %v", name, err)
		return
	}

	// Members are not notified on delete; tell the operator how many were
	// left without a channel.
	fmt.Printf("channel #%s deleted (%d members orphaned)\n", name, orphaned)
}
