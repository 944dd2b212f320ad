package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/cli/repl"
	"github.com/yndnr/memkv-go/internal/server/protocol"
)

// REPLCommand returns the repl command.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Start an interactive session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "history file (empty disables it)",
				Value: repl.DefaultHistoryPath(),
			},
		},
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	history := repl.NewHistory(c.String("history"))
	if err := history.Load(); err != nil {
		PrintError(c, "load history: %v", err)
	}

	fmt.Fprintf(writerOf(c), "connected to %s, type help for commands\n", client.Addr())
	r := repl.New(
		func(ctx context.Context, line string) (string, error) {
			return client.Do(ctx, line)
		},
		repl.WithIO(c.App.Reader, writerOf(c)),
		repl.WithHistory(history),
		repl.WithCompleter(repl.NewCompleter(protocol.Verbs())),
	)
	runErr := r.Run(contextOf(c))

	if err := history.Save(); err != nil {
		PrintError(c, "save history: %v", err)
	}
	return runErr
}
