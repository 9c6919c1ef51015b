package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"

	groundtruthservice "github.com/predict-it/predict-it/app/modules/groundtruth/application"
	groundtruthdb "github.com/predict-it/predict-it/app/modules/groundtruth/infrastructure/repositories"
	leaderboardservice "github.com/predict-it/predict-it/app/modules/leaderboard/application"
	"github.com/predict-it/predict-it/app/modules/leaderboard/infrastructure/adapters"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
	"github.com/predict-it/predict-it/app/observability"
)

func leaderboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "print the current standings",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "top", Value: 0, Usage: "only print the first n entries"},
			&cli.StringFlag{Name: "csv", Usage: "also write the CSV export to this path"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			metric, err := scoringdomain.ParseMetric(cfg.Scoring.Metric)
			if err != nil {
				return err
			}
			obs := observability.New(io.Discard, "text", "error")

			return withDB(c, func(db *bun.DB) error {
				truth := groundtruthservice.NewGroundTruthService(
					groundtruthdb.NewRepository(db),
					obs.Logger,
					obs.Metrics,
					observability.Tracer("groundtruth"),
					db,
					nil,
				)
				svc := leaderboardservice.NewLeaderboardService(
					adapters.NewSubmissionReaderAdapter(scoringdb.NewRepository(db)),
					truth,
					metric,
					obs.Logger,
					obs.Metrics,
					observability.Tracer("leaderboard"),
				)

				overview, err := svc.Overview(c.Context)
				if err != nil {
					return err
				}
				printOverview(os.Stdout, overview, c.Int("top"))

				if path := c.String("csv"); path != "" {
					f, err := os.Create(path)
					if err != nil {
						return err
					}
					defer f.Close()
					if err := svc.ExportCSV(c.Context, f); err != nil {
						return err
					}
					color.Green("Wrote %s", path)
				}
				return nil
			})
		},
	}
}

func printOverview(w io.Writer, o leaderboardservice.Overview, top int) {
	if o.GroundTruth == nil {
		color.Yellow("No ground truth has been activated yet")
	} else {
		color.Cyan("Ground truth #%d (%s, %d rows)", o.GroundTruth.ID, o.GroundTruth.Filename, o.GroundTruth.Rows)
	}
	fmt.Fprintf(w, "%d students, %d submissions, metric %s (%s)\n",
		o.Statistics.Students, o.Statistics.Submissions, o.Metric, o.Direction)

	entries := o.Entries
	if top > 0 && top < len(entries) {
		entries = entries[:top]
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(leaderboardservice.ExportHeader)
	for _, e := range entries {
		table.Append([]string{
			strconv.Itoa(e.Rank),
			e.StudentID,
			strconv.FormatFloat(e.BestScore, 'f', 6, 64),
			strconv.Itoa(e.SubmissionCount),
			e.LastSubmissionAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}
