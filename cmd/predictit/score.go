package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
)

// scoreCommand scores a prediction file against a local ground truth file
// without touching the database.
func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "score a prediction CSV against a ground truth CSV offline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prediction", Aliases: []string{"p"}, Required: true, Usage: "prediction CSV"},
			&cli.StringFlag{Name: "truth", Aliases: []string{"t"}, Required: true, Usage: "ground truth CSV"},
			&cli.StringFlag{Name: "metric", Aliases: []string{"m"}, Value: string(scoringdomain.MetricRMSE), Usage: "rmse, mae or accuracy"},
			&cli.StringFlag{Name: "id-column", Value: "id"},
			&cli.StringFlag{Name: "value-column", Value: "value"},
		},
		Action: func(c *cli.Context) error {
			metric, err := scoringdomain.ParseMetric(c.String("metric"))
			if err != nil {
				return err
			}
			prediction, err := readTable(c.String("prediction"))
			if err != nil {
				return err
			}
			truth, err := readTable(c.String("truth"))
			if err != nil {
				return err
			}

			result, err := scoringdomain.Score(prediction, truth, scoringdomain.ColumnPreferences{
				IDColumn:    c.String("id-column"),
				ValueColumn: c.String("value-column"),
			}, metric)
			if err != nil {
				color.Red("Scoring failed (%s): %v", scoringdomain.KindOf(err), err)
				return cli.Exit("", 1)
			}

			color.Green("%s = %.6f", result.Metric, result.Score)
			fmt.Printf("rows: %d, alignment: %s\n", result.Rows, result.Alignment)
			fmt.Printf("prediction columns: id=%q value=%q\n", result.PredictionColumns.ID, result.PredictionColumns.Value)
			fmt.Printf("ground truth columns: id=%q value=%q\n", result.TruthColumns.ID, result.TruthColumns.Value)
			return nil
		},
	}
}

func readTable(path string) (*scoringdomain.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	t, err := scoringdomain.ParseTable(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
