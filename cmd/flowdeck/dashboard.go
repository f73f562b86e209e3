package main

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/flowdeck/internal/dispatch"
	"github.com/tinytelemetry/flowdeck/internal/flowapi"
	"github.com/tinytelemetry/flowdeck/internal/flowstore"
	"github.com/tinytelemetry/flowdeck/internal/poller"
	"github.com/tinytelemetry/flowdeck/internal/selection"
	"github.com/tinytelemetry/flowdeck/internal/tui"
)

func runTUI(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger(cfg.LogFile)
	defer cleanupLogger()

	client := cfg.client()
	store := flowstore.New()
	coord := poller.New(client, store, poller.WithEnabled(cfg.AutoRefresh))
	disp := dispatch.New(client,
		dispatch.WithSaver(flowapi.FileSaver{Downloader: client, Dir: cfg.DownloadDir}),
		dispatch.WithDownloadDelay(cfg.DownloadDelay),
	)
	// Teardown contract: no timer or request outlives the dashboard.
	defer coord.Stop()
	defer disp.Close()

	dashboard := tui.NewDashboardModel(tui.Deps{
		Store:              store,
		Poller:             coord,
		Dispatcher:         disp,
		Selection:          selection.NewManager(),
		PollInterval:       cfg.PollInterval,
		BaseURL:            client.BaseURL(),
		ReverseScrollWheel: cfg.ReverseScrollWheel,
	})
	app := tui.NewApp(tui.NewDashboardPage(dashboard))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	tui.Attach(p.Send, coord, disp)

	log.Printf("flowdeck: dashboard polling %s every %s", client.BaseURL(), cfg.PollInterval)
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	log.Printf("flowdeck: dashboard exited")
	return nil
}
