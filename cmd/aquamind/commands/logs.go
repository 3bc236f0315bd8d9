package commands

import (
	"fmt"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/server/responses"
)

// LogsCmd implements the 'logs' command. It lists recent watering runs
// from a running daemon.
type LogsCmd struct {
	Host  string `help:"Daemon host" default:"localhost"`
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
}

func (c *LogsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var runs responses.RunsResponse
	path := fmt.Sprintf("/api/runs?limit=%d", c.Limit)
	if err := apiGet(c.Host, cfg.HTTP.APIPort, path, &runs); err != nil {
		return err
	}

	if len(runs.Runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-20s %-16s %-9s %-9s %s\n", "STARTED", "ZONE", "SOURCE", "DURATION", "RESULT")
	for _, run := range runs.Runs {
		result := "ok"
		if !run.Success {
			result = "failed"
		}
		fmt.Printf("%-20s %-16s %-9s %-9s %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.ZoneName,
			run.Source,
			fmt.Sprintf("%ds", run.DurationSec),
			result)
	}
	fmt.Printf("\n%d of %d runs shown\n", len(runs.Runs), runs.Total)
	return nil
}
