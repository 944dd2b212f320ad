package command

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
)

// SubscribeCommand returns the subscribe command.
func SubscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Aliases:   []string{"sub"},
		Usage:     "Subscribe to channels and print messages until interrupted",
		ArgsUsage: "CHANNEL [CHANNEL...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "monitor",
				Usage: "also receive the monitor stream",
			},
		},
		Action: subscribeAction,
	}
}

func subscribeAction(c *cli.Context) error {
	if c.NArg() == 0 && !c.Bool("monitor") {
		return cli.Exit("subscribe needs a channel or --monitor", 2)
	}

	ctx, stop := signal.NotifyContext(contextOf(c), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	w := writerOf(c)
	if c.NArg() > 0 {
		reply, err := client.Do(ctx, "subscribe "+strings.Join(c.Args().Slice(), " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "subscribed to %s channel(s)\n", strings.TrimPrefix(reply, "(integer) "))
	}
	if c.Bool("monitor") {
		reply, err := client.Do(ctx, "monitor")
		if err != nil {
			return err
		}
		if reply != "OK" {
			return fmt.Errorf("monitor: %s", reply)
		}
	}

	return client.Stream(ctx, func(line string) {
		fmt.Fprintln(w, line)
	})
}
