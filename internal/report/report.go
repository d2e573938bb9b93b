// Package report renders scenarios as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/salesops/target-planner/internal/planning"
	"github.com/xuri/excelize/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	SheetSummary     = "Summary"
	SheetAssignments = "Assignments"
)

// ContentType is the media type of the written files.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Filename returns the name used for downloads of the scenario.
func Filename(key planning.Key) string {
	return fmt.Sprintf("targets-%d-%s.xlsx", key.Year, key.Version)
}

// Write writes the scenario as an XLSX workbook to w.
//
// The assignment sheet lists the entities in the order passed in. Assignments of
// entities that are not in the list follow with their ID as name.
func Write(w io.Writer, scenario planning.Scenario, entities []planning.Entity) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetAssignments); err != nil {
		return err
	}

	if err := writeSummary(f, scenario); err != nil {
		return err
	}

	if err := writeAssignments(f, scenario, entities); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

func writeSummary(f *excelize.File, scenario planning.Scenario) error {
	rows := [][]any{
		{"Year", scenario.Key.Year},
		{"Version", scenario.Key.Version.String()},
		{"Stage", scenario.Stage.Label()},
		{"Revision", scenario.Revision},
		{},
		{"Sub category", "Company total", "Assigned", "Difference"},
	}

	for _, sub := range scenario.SubCategories() {
		total := scenario.CompanyTotals[sub]
		assigned := scenario.AssignedSum(sub)
		rows = append(rows, []any{sub, total, assigned, total - assigned})
	}

	return setRows(f, SheetSummary, rows)
}

func writeAssignments(f *excelize.File, scenario planning.Scenario, entities []planning.Entity) error {
	subs := scenario.SubCategories()

	header := []any{"Group", "Name"}
	for _, sub := range subs {
		header = append(header, sub)
	}
	rows := [][]any{header}

	row := func(group, name string, amounts map[string]int64) []any {
		r := []any{group, name}
		for _, sub := range subs {
			r = append(r, amounts[sub])
		}
		return r
	}

	known := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		known[e.ID] = struct{}{}
		rows = append(rows, row(e.GroupLabel, e.Name, scenario.Assignments[e.ID]))
	}

	unknown := maps.Keys(scenario.Assignments)
	slices.Sort(unknown)
	for _, id := range unknown {
		if _, ok := known[id]; !ok {
			rows = append(rows, row("", id, scenario.Assignments[id]))
		}
	}

	totals := make(map[string]int64, len(subs))
	for _, sub := range subs {
		totals[sub] = scenario.AssignedSum(sub)
	}
	rows = append(rows, row("", "Total assigned", totals), row("", "Company total", scenario.CompanyTotals))

	return setRows(f, SheetAssignments, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}

		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}

	return nil
}
