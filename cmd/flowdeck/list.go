package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/tinytelemetry/flowdeck/internal/filter"
	"github.com/tinytelemetry/flowdeck/internal/model"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// filterFlags holds the filter options shared by list and generate.
type filterFlags struct {
	search string
	method string
	status string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "keep flows whose URL contains this text (case-insensitive)")
	cmd.Flags().StringVar(&f.method, "method", filter.AllMethods, "keep flows with this exact method")
	cmd.Flags().StringVar(&f.status, "status", string(filter.StatusAll), "status filter: ALL, 2xx, 3xx, 4xx, 5xx or none")
}

func (f filterFlags) criteria() (filter.Criteria, error) {
	status, err := filter.ParseStatusFilter(f.status)
	if err != nil {
		return filter.Criteria{}, err
	}
	method := f.method
	if strings.EqualFold(method, filter.AllMethods) {
		method = filter.AllMethods
	}
	return filter.Criteria{Search: f.search, Method: method, Status: status}, nil
}

func newListCommand() *cobra.Command {
	var filters filterFlags
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch the flow list once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile, cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			flows, err := cfg.client().ListFlows(ctx)
			if err != nil {
				return err
			}
			return writeFlows(cmd.OutOrStdout(), output, filter.Visible(flows, criteria), len(flows))
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json, yaml)")
	return cmd
}

// writeFlows renders flows in the requested format. total is the unfiltered
// count shown in the table footer.
func writeFlows(w io.Writer, format string, flows []model.Flow, total int) error {
	if flows == nil {
		flows = []model.Flow{}
	}
	switch strings.ToLower(format) {
	case "json":
		out, err := json.MarshalIndent(map[string][]model.Flow{"flows": flows}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]model.Flow{"flows": flows}); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		return writeFlowTable(w, flows, total)
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

func writeFlowTable(w io.Writer, flows []model.Flow, total int) error {
	header := lipgloss.NewStyle().Bold(true)

	idWidth := len("ID")
	for _, f := range flows {
		idWidth = max(idWidth, len(f.ID))
	}

	row := func(id, method, status, url string) string {
		return fmt.Sprintf("%-*s  %-7s  %-6s  %s", idWidth, id, method, status, url)
	}

	lines := []string{header.Render(row("ID", "METHOD", "STATUS", "URL"))}
	for _, f := range flows {
		lines = append(lines, row(string(f.ID), f.Method, f.StatusText(), f.URL))
	}
	lines = append(lines, fmt.Sprintf("%s of %s flows", humanize.Comma(int64(len(flows))), humanize.Comma(int64(total))))

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
