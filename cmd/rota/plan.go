package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/logger"
	"github.com/arnavshah/rotation-api-go/pkg/models"
	"github.com/arnavshah/rotation-api-go/pkg/service"
)

type planOptions struct {
	roster    string
	overrides string
	present   []string
	policy    string
	seed      int64
	date      string
	format    string
	out       string
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newPlanCmd(cfgPath *string) *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan one duty cycle from a roster file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, *cfgPath, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.roster, "roster", "r", "", "planning request file (yaml or json)")
	f.StringVar(&opts.overrides, "overrides", "", "file with the previous cycle's overrides")
	f.StringSliceVar(&opts.present, "present", nil, "ids present today (default: everyone)")
	f.StringVar(&opts.policy, "policy", "", "fifo-fairness or random-draw")
	f.Int64Var(&opts.seed, "seed", 0, "random seed for random-draw")
	f.StringVar(&opts.date, "date", "", "duty date, YYYY-MM-DD (default: today)")
	f.StringVarP(&opts.format, "format", "f", "table", "output format: json or table")
	f.StringVarP(&opts.out, "out", "o", "", "write the updated roster to this yaml file")
	_ = cmd.MarkFlagRequired("roster")
	return cmd
}

func runPlan(cmd *cobra.Command, cfgPath string, opts *planOptions) error {
	if opts.format != "json" && opts.format != "table" {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	req, err := loadRequest(opts.roster)
	if err != nil {
		return err
	}
	if opts.overrides != "" {
		overrides, err := loadOverrides(opts.overrides)
		if err != nil {
			return err
		}
		req.Overrides = append(req.Overrides, overrides...)
	}
	if len(opts.present) > 0 {
		req.PresentToday = opts.present
	}
	if opts.policy != "" {
		req.Policy = opts.policy
	}
	if cmd.Flags().Changed("seed") {
		req.Seed = &opts.seed
	}
	if opts.date != "" {
		req.Date = opts.date
	}

	log := logger.New("cli", logger.Options{Env: "dev", Level: cfg.Logging.Level, Out: cmd.ErrOrStderr()})
	planner, err := service.NewPlanner(cfg.Scheduling, nil, log)
	if err != nil {
		return fmt.Errorf("scheduling config: %w", err)
	}
	res, err := planner.Plan(req)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Response); err != nil {
			return err
		}
	} else {
		renderPlan(w, res.Plan, res.Response)
	}

	if opts.out != "" {
		return writeRoster(opts.out, res.Roster)
	}
	return nil
}

func loadRequest(path string) (models.PlanRequest, error) {
	var req models.PlanRequest
	k, err := config.LoadFile(path)
	if err != nil {
		return req, err
	}
	if err := k.UnmarshalWithConf("", &req, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}

func loadOverrides(path string) ([]models.Override, error) {
	var doc struct {
		Overrides []models.Override `json:"overrides"`
	}
	k, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Overrides, nil
}

func writeRoster(path string, roster []models.Person) error {
	data, err := yaml.Parser().Marshal(map[string]any{"roster": service.PersonInputs(roster)})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func renderPlan(w io.Writer, plan *models.Plan, resp models.PlanResponse) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TRACK", "SLOT", "ASSIGNED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, tp := range plan.Tracks {
		for _, a := range tp.Assignments {
			assigned := strings.Join(a.PersonIDs, " + ")
			if a.Degraded {
				assigned += " (degraded)"
			}
			t.Row(string(tp.Track), a.Slot.Label(), assigned)
		}
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "plan:    %s (%s)\n", resp.PlanID, resp.Policy)
	fmt.Fprintf(w, "present: %s\n", strings.Join(resp.Present, ", "))
	if len(resp.IgnoredOverrides) > 0 {
		fmt.Fprintf(w, "ignored overrides: %s\n", strings.Join(resp.IgnoredOverrides, ", "))
	}
}
