package leaderboardservice

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExportHeader is the header row of every leaderboard export.
var ExportHeader = []string{"Rank", "Student", "Best Score", "Submissions", "Last Submission"}

const (
	exportTimeLayout = "2006-01-02 15:04:05"
	exportSheet      = "Leaderboard"
)

func (s *LeaderboardService) ExportCSV(ctx context.Context, w io.Writer) error {
	return s.observe(ctx, "ExportCSV", func(ctx context.Context) error {
		standings, err := s.standings(ctx)
		if err != nil {
			return err
		}

		cw := csv.NewWriter(w)
		if err := cw.Write(ExportHeader); err != nil {
			return err
		}
		for _, e := range standings.Entries {
			record := []string{
				strconv.Itoa(e.Rank),
				e.StudentID,
				strconv.FormatFloat(e.BestScore, 'f', 6, 64),
				strconv.Itoa(e.SubmissionCount),
				e.LastSubmissionAt.UTC().Format(exportTimeLayout),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func (s *LeaderboardService) ExportXLSX(ctx context.Context, w io.Writer) error {
	return s.observe(ctx, "ExportXLSX", func(ctx context.Context) error {
		standings, err := s.standings(ctx)
		if err != nil {
			return err
		}

		f := excelize.NewFile()
		defer f.Close()

		idx, err := f.NewSheet(exportSheet)
		if err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}

		_ = f.SetColWidth(exportSheet, "A", "A", 8)
		_ = f.SetColWidth(exportSheet, "B", "B", 24)
		_ = f.SetColWidth(exportSheet, "C", "D", 14)
		_ = f.SetColWidth(exportSheet, "E", "E", 22)

		headerStyle, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		scoreFormat := "0.000000"
		scoreStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &scoreFormat})
		if err != nil {
			return fmt.Errorf("score style: %w", err)
		}

		header := make([]any, len(ExportHeader))
		for i, h := range ExportHeader {
			header[i] = h
		}
		if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
			return err
		}
		_ = f.SetCellStyle(exportSheet, "A1", "E1", headerStyle)

		for i, e := range standings.Entries {
			row := i + 2
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []any{
				e.Rank,
				e.StudentID,
				e.BestScore,
				e.SubmissionCount,
				e.LastSubmissionAt.UTC().Format(exportTimeLayout),
			}
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return err
			}
			scoreCell, _ := excelize.CoordinatesToCellName(3, row)
			_ = f.SetCellStyle(exportSheet, scoreCell, scoreCell, scoreStyle)
		}

		if _, err := f.WriteTo(w); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		return nil
	})
}
