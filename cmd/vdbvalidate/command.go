package main

import (
	"context"
	"flag"
)

// Command is a command-table entry: a name, its own FlagSet, and a Run
// function, registered into a package-level slice. This validator only
// ever has one command (`validate`), but the shape is kept so a second
// command (e.g. a future `describe`) slots in the same way.
type Command struct {
	Name  string
	Flags *flag.FlagSet
	Run   func(ctx context.Context, args []string) error
}

var commands = []*Command{
	cmdValidate,
}

func runCmd(ctx context.Context, cmdName string, cmdArgs []string) error {
	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Flags.Parse(cmdArgs); err != nil {
				return err
			}
			return cmd.Run(ctx, cmd.Flags.Args())
		}
	}
	return &unknownCommandError{cmdName}
}

type unknownCommandError struct {
	name string
}

func (e *unknownCommandError) Error() string {
	return "unknown command: " + e.name
}
