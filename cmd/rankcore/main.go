// Command rankcore computes rankings for a round snapshot stored in a YAML
// file. It exists for operators and integration debugging; production
// invocations go through the library API with a real snapshot source and
// result sink.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/fairscore/rankcore/internal/application"
	"github.com/fairscore/rankcore/internal/domain"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cmd := &cli.Command{
		Name:  "rankcore",
		Usage: "normalize, aggregate, and rank competition scores",
		Commands: []*cli.Command{
			computeCommand(logger),
			explainCommand(logger),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func computeCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "compute",
		Usage: "compute rankings for a round snapshot file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "round snapshot YAML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "compute config YAML file (defaults to z_score, no selection)",
			},
			&cli.StringFlag{
				Name:  "method",
				Usage: "normalization method override: z_score or robust_mad",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit the full result set as JSON instead of a table",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print tie-breaker traces for tied or cascade-ordered teams",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			snapshot, err := loadSnapshot(cmd.String("input"))
			if err != nil {
				return err
			}

			config := application.DefaultComputeConfig()
			if path := cmd.String("config"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read config: %w", err)
				}
				config, err = application.LoadComputeConfig(data)
				if err != nil {
					return err
				}
			}
			if method := cmd.String("method"); method != "" {
				config.Method = domain.NormalizationMethod(method)
			}

			pipeline, err := application.NewPipeline(config)
			if err != nil {
				return err
			}

			logger.Info("computing round",
				"round_id", snapshot.RoundID,
				"method", config.Method,
				"teams", countTeams(snapshot),
				"evaluations", len(snapshot.Evaluations),
			)

			results, err := pipeline.Compute(ctx, snapshot)
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(results)
			}
			printResults(results, cmd.Bool("trace"))
			return nil
		},
	}
}

func explainCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "explain",
		Usage: "recompute a round and explain one team's position and tie-breaking",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "round snapshot YAML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "team",
				Usage:    "team ID to explain",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "method",
				Usage: "normalization method: z_score or robust_mad",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			snapshot, err := loadSnapshot(cmd.String("input"))
			if err != nil {
				return err
			}

			config := application.DefaultComputeConfig()
			if method := cmd.String("method"); method != "" {
				config.Method = domain.NormalizationMethod(method)
			}
			pipeline, err := application.NewPipeline(config)
			if err != nil {
				return err
			}

			logger.Info("recomputing round for explanation",
				"round_id", snapshot.RoundID, "method", config.Method)

			results, err := pipeline.Compute(ctx, snapshot)
			if err != nil {
				return err
			}

			teamID := cmd.String("team")
			for _, r := range results.Ranked {
				if r.TeamID != teamID {
					continue
				}
				printExplanation(results, r)
				return nil
			}
			return fmt.Errorf("team %q not found in round %s", teamID, snapshot.RoundID)
		},
	}
}

func printExplanation(results *domain.ResultSet, r domain.RankedResult) {
	fmt.Printf("team %s: rank %d, percentile %.1f, score %+.4f\n",
		r.TeamID, r.Rank, r.Percentile, r.AggregatedScore)
	if r.IsTied {
		fmt.Println("flagged: tied after the full tie-break cascade; manual resolution required")
	}

	for _, agg := range results.Aggregated {
		if agg.TeamID != r.TeamID {
			continue
		}
		fmt.Printf("judges: %d, raw totals mean %.2f / median %.2f\n",
			agg.JudgeCount, agg.MeanRawTotal, agg.MedianRawTotal)
		ids := make([]string, 0, len(agg.PerCriterion))
		for id := range agg.PerCriterion {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("  %-20s weighted-z sum %+.4f\n", id, agg.PerCriterion[id])
		}
	}

	for _, row := range results.Normalized {
		if row.TeamID != r.TeamID {
			continue
		}
		fmt.Printf("judge %s: judge total %+.4f (raw %.2f)\n",
			row.JudgeID, row.JudgeTotal, row.RawTotal)
	}

	if r.Trace == nil {
		fmt.Println("no tie-break needed: the aggregated score alone decided this position")
		return
	}
	fmt.Printf("tie-break against %s:\n", r.Trace.ComparedWith)
	for _, c := range r.Trace.Comparisons {
		marker := ""
		if c.Decisive {
			marker = "  <- decisive"
		}
		fmt.Printf("  %-24s self=%+.4f other=%+.4f delta=%+.4f%s\n",
			c.Comparator, c.Self, c.Other, c.Delta, marker)
	}
}

func loadSnapshot(path string) (*domain.RoundSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot domain.RoundSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

func countTeams(snapshot *domain.RoundSnapshot) int {
	teams := make(map[string]struct{})
	for _, ev := range snapshot.Evaluations {
		teams[ev.TeamID] = struct{}{}
	}
	return len(teams)
}

func printResults(results *domain.ResultSet, withTrace bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tTEAM\tSCORE\tPERCENTILE\tJUDGES\tTIED")
	byTeam := make(map[string]domain.AggregatedTeamResult, len(results.Aggregated))
	for _, agg := range results.Aggregated {
		byTeam[agg.TeamID] = agg
	}
	for _, r := range results.Ranked {
		tied := ""
		if r.IsTied {
			tied = "yes (manual resolution required)"
		}
		fmt.Fprintf(w, "%d\t%s\t%+.4f\t%.1f\t%d\t%s\n",
			r.Rank, r.TeamID, r.AggregatedScore, r.Percentile,
			byTeam[r.TeamID].JudgeCount, tied)
	}
	w.Flush()

	if withTrace {
		for _, r := range results.Ranked {
			if r.Trace == nil {
				continue
			}
			fmt.Printf("\n%s vs %s:\n", r.TeamID, r.Trace.ComparedWith)
			for _, c := range r.Trace.Comparisons {
				marker := ""
				if c.Decisive {
					marker = "  <- decisive"
				}
				fmt.Printf("  %-24s self=%+.4f other=%+.4f delta=%+.4f%s\n",
					c.Comparator, c.Self, c.Other, c.Delta, marker)
			}
		}
	}

	if results.Selection == nil {
		return
	}
	sel := results.Selection
	if sel.Stop {
		fmt.Println("\nselection: stop (single assigned judge; selection is a no-op)")
		return
	}
	ids := sel.SelectedTeamIDs.ToSlice()
	sort.Strings(ids)
	fmt.Printf("\nselection (%s): %d teams advance: %v\n", sel.Mode, len(ids), ids)
	for _, js := range sel.PerJudge {
		fmt.Printf("  judge %s: %v\n", js.JudgeID, js.TeamIDs)
	}
}
