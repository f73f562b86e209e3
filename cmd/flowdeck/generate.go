package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tinytelemetry/flowdeck/internal/dispatch"
	"github.com/tinytelemetry/flowdeck/internal/filter"
	"github.com/tinytelemetry/flowdeck/internal/flowapi"
	"github.com/tinytelemetry/flowdeck/internal/model"
	"github.com/tinytelemetry/flowdeck/internal/selection"
)

func newGenerateCommand() *cobra.Command {
	var (
		kind       string
		ids        []string
		allVisible bool
		noDownload bool
		filters    filterFlags
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an OpenAPI or Postman artifact from flows",
		Example: `  flowdeck generate --kind openapi --id 12 --id 14
  flowdeck generate --kind postman --all-visible --method GET --status 2xx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile, cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			artifact, err := model.ParseArtifactKind(kind)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout(cfg))
			defer cancel()

			client := cfg.client()
			sel := selection.NewManager()
			for _, id := range ids {
				sel.Add(model.FlowID(id))
			}
			if allVisible {
				criteria, err := filters.criteria()
				if err != nil {
					return err
				}
				flows, err := client.ListFlows(ctx)
				if err != nil {
					return err
				}
				sel.Add(filter.IDs(filter.Visible(flows, criteria))...)
			}

			var opts []dispatch.Option
			saved := make(chan dispatch.Event, 1)
			if !noDownload {
				opts = append(opts,
					dispatch.WithSaver(flowapi.FileSaver{Downloader: client, Dir: cfg.DownloadDir}),
					dispatch.WithDownloadDelay(cfg.DownloadDelay),
				)
			}
			disp := dispatch.New(client, opts...)
			defer disp.Close()
			var once sync.Once
			disp.OnChange(func(ev dispatch.Event) {
				if ev.Saved != "" || ev.DownloadErr != nil {
					once.Do(func() { saved <- ev })
				}
			})

			note, err := disp.Generate(ctx, artifact, sel.IDs())
			if errors.Is(err, dispatch.ErrEmptySelection) {
				return fmt.Errorf("no flows selected: pass --id or --all-visible")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if note.Kind == model.NotifyError {
				return errors.New(note.Text)
			}
			fmt.Fprintf(out, "%s (%d flows)\n", note.Text, sel.Size())

			if noDownload {
				return nil
			}
			if disp.PendingDownloads() == 0 {
				select {
				case ev := <-saved:
					return reportSaved(out, ev)
				default:
					return nil // the backend did not name a file
				}
			}
			select {
			case ev := <-saved:
				return reportSaved(out, ev)
			case <-ctx.Done():
				return fmt.Errorf("download: %w", ctx.Err())
			}
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(model.ArtifactOpenAPI), "artifact kind: openapi or postman")
	cmd.Flags().StringArrayVar(&ids, "id", nil, "flow id to include (repeatable)")
	cmd.Flags().BoolVar(&allVisible, "all-visible", false, "include every flow that passes the filter flags")
	cmd.Flags().BoolVar(&noDownload, "no-download", false, "do not download the generated file")
	filters.register(cmd)
	return cmd
}

func reportSaved(w io.Writer, ev dispatch.Event) error {
	if ev.DownloadErr != nil {
		return fmt.Errorf("download: %w", ev.DownloadErr)
	}
	fmt.Fprintf(w, "Saved %s\n", ev.Saved)
	return nil
}
