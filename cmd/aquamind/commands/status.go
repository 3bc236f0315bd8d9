package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/server/responses"
)

// StatusCmd implements the 'status' command. It queries a running daemon
// over its API port.
type StatusCmd struct {
	Host string `help:"Daemon host" default:"localhost"`
	JSON bool   `help:"Print raw JSON instead of a summary"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var status responses.StatusResponse
	if err := apiGet(s.Host, cfg.HTTP.APIPort, "/api/status", &status); err != nil {
		return err
	}

	if s.JSON {
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if status.ActiveZoneID != nil {
		fmt.Printf("Active zone:   %s (id %d)\n", status.ActiveZoneName, *status.ActiveZoneID)
		fmt.Printf("Time left:     %ds\n", status.TimeRemainingSec)
	} else {
		fmt.Println("Active zone:   none")
	}
	if status.RainDelay.Active {
		fmt.Printf("Rain delay:    active, %.1fh remaining\n", status.RainDelay.HoursRemaining)
	} else {
		fmt.Println("Rain delay:    inactive")
	}
	if status.LastRun != nil {
		fmt.Printf("Last run:      %s\n", status.LastRun.Local().Format(time.RFC1123))
	}
	return nil
}

// apiGet fetches and decodes a daemon API response.
func apiGet(host string, port int, path string, out any) error {
	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://%s:%d%s", host, port, path)

	resp, err := client.Get(url)
	if err != nil {
		return errors.WrapRetryable(err, errors.CategoryNetwork, errors.SeverityError, "daemon unreachable").
			WithContext("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CategoryDaemon, errors.SeverityError, "daemon returned an error").
			WithContext("url", url).
			WithContext("status", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "failed to decode daemon response")
	}
	return nil
}
