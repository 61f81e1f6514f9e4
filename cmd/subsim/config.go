package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/pipelined/subsim/config"
)

type configCommand struct {
	out string
}

func (cmd *configCommand) Name() string {
	return "config"
}

func (cmd *configCommand) Help() string {
	return "Print default configuration"
}

func (cmd *configCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "out", "", "file to save configuration, stdout if empty")
}

func (cmd *configCommand) Run(_ context.Context, stdout io.Writer) error {
	b, err := config.Default().Marshal()
	if err != nil {
		return err
	}
	if cmd.out == "" {
		_, err = stdout.Write(b)
		return err
	}
	return os.WriteFile(cmd.out, b, 0o644)
}
