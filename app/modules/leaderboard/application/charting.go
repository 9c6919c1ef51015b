package leaderboardservice

import (
	"bytes"
	"context"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	leaderboarddomain "github.com/predict-it/predict-it/app/modules/leaderboard/domain"
)

// ChartPalette holds the colours used by rendered charts.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	Leader     drawing.Color
	Text       drawing.Color
}

// DefaultPalette is a light theme.
func DefaultPalette() ChartPalette {
	return ChartPalette{
		Background: drawing.ColorWhite,
		Bar:        drawing.ColorFromHex("4472C4"),
		Leader:     drawing.ColorFromHex("C9A227"),
		Text:       drawing.ColorFromHex("333333"),
	}
}

// DefaultChartSize is the number of students charted when none is requested.
const DefaultChartSize = 10

func (s *LeaderboardService) Chart(ctx context.Context, n int) ([]byte, error) {
	var png []byte
	err := s.observe(ctx, "Chart", func(ctx context.Context) error {
		standings, err := s.standings(ctx)
		if err != nil {
			return err
		}
		if n <= 0 {
			n = DefaultChartSize
		}
		png, err = GenerateStandingsChart(leaderboarddomain.Top(standings.Entries, n), standings.Metric.String(), s.palette)
		return err
	})
	return png, err
}

// GenerateStandingsChart produces a PNG bar chart of best scores in rank order.
func GenerateStandingsChart(entries []leaderboarddomain.Entry, metricName string, palette ChartPalette) ([]byte, error) {
	if len(entries) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	bars := make([]chart.Value, len(entries))
	maxScore := 0.0
	for i, e := range entries {
		style := chart.Style{FillColor: palette.Bar, StrokeColor: palette.Bar}
		if e.Rank == 1 {
			style = chart.Style{FillColor: palette.Leader, StrokeColor: palette.Leader}
		}
		bars[i] = chart.Value{Label: e.StudentID, Value: e.BestScore, Style: style}
		maxScore = math.Max(maxScore, e.BestScore)
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	graph := chart.BarChart{
		Title:      "Best " + metricName + " by student",
		TitleStyle: chart.Style{FontColor: palette.Text},
		Width:      800,
		Height:     400,
		BarWidth:   40,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Canvas: chart.Style{FillColor: palette.Background},
		XAxis:  chart.Style{FontColor: palette.Text},
		YAxis: chart.YAxis{
			Name:  metricName,
			Style: chart.Style{FontColor: palette.Text},
			Range: &chart.ContinuousRange{Min: 0, Max: maxScore * 1.1},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// renderNoDataPlaceholder draws the message directly; go-chart refuses to render a chart without series.
func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No scored submissions yet"
	)

	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}

	r.SetFillColor(palette.Background)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(palette.Text)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
