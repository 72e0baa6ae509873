package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"mp-watch/models"
	"mp-watch/utils"
)

// Register-of-interests category files for outside employment.
const (
	earningsRefFile     = "PublishedInterest-Category_1.csv"
	earningsAdhocFile   = "PublishedInterest-Category_1.1.csv"
	earningsOngoingFile = "PublishedInterest-Category_1.2.csv"
)

// CollateOutsideEarnings reconciles the three outside-employment registers
// into per-MP totals on the dataset.
//
// Category 1 is the reference list of employment relationships. Category 1.1
// holds one-off payments (kept from the election cutoff onwards). Category
// 1.2 holds recurring payments, normalised to a to-date value over a window
// clamped between the cutoff and the last successful interests refresh.
// Child values roll up onto their parent reference entry, then per MP:
// total, count of paying sources and the single most lucrative source.
//
// The reconciled reference rows are also exported to combinedOut for
// downstream inspection.
func CollateOutsideEarnings(ds *models.Dataset, interestsDir, refreshDate, combinedOut string, logger *utils.Logger) error {
	refTable, err := readCSVTable(filepath.Join(interestsDir, earningsRefFile))
	if err != nil {
		return fmt.Errorf("earnings: %w", err)
	}
	adhocTable, err := readCSVTable(filepath.Join(interestsDir, earningsAdhocFile))
	if err != nil {
		return fmt.Errorf("earnings: %w", err)
	}
	ongoingTable, err := readCSVTable(filepath.Join(interestsDir, earningsOngoingFile))
	if err != nil {
		return fmt.Errorf("earnings: %w", err)
	}

	// Sum of child payment values and hours per parent reference entry.
	childValues := make(map[string]float64)
	childHours := make(map[string]float64)

	for _, row := range adhocTable.rows {
		if adhocTable.str(row, "ReceivedDate") < models.ElectionCutoff {
			continue
		}
		parent := adhocTable.str(row, "Parent Interest ID")
		childValues[parent] += adhocTable.float(row, "Value")
	}

	for _, row := range ongoingTable.rows {
		start, end := clampWindow(
			ongoingTable.str(row, "StartDate"),
			ongoingTable.str(row, "EndDate"),
			models.ElectionCutoff, refreshDate,
		)
		startT, okS := parseDate(start)
		endT, okE := parseDate(end)
		if !okS || !okE {
			continue
		}

		value := NormalizeToDate(
			ongoingTable.float(row, "Value"),
			Period(ongoingTable.str(row, "RegularityOfPayment")),
			startT, endT,
		)
		// Hours worked to date share the same normalisation logic.
		hours := NormalizeToDate(
			ongoingTable.float(row, "HoursWorked"),
			Period(ongoingTable.str(row, "PeriodForHoursWorked")),
			startT, endT,
		)

		parent := ongoingTable.str(row, "Parent Interest ID")
		childValues[parent] += value
		childHours[parent] += hours
	}

	// Attach reconciled values to the reference entries.
	refs := make([]models.EarningsRef, 0, len(refTable.rows))
	for _, row := range refTable.rows {
		refs = append(refs, models.EarningsRef{
			RecordID: refTable.str(row, "ID"),
			MemberID: refTable.int(row, "MNIS ID"),
			Payer:    refTable.str(row, "PayerName"),
			Role:     refTable.str(row, "JobTitle"),
			Value:    childValues[refTable.str(row, "ID")],
		})
	}

	if err := writeCombinedEarnings(combinedOut, refs); err != nil {
		logger.Warn("[earnings] Could not export combined earnings: %v", err)
	}

	// Per-MP rollup. Top source tie-break: first occurrence in file order.
	totals := make(map[int]float64)
	hours := make(map[int]float64)
	counts := make(map[int]int)
	top := make(map[int]models.TopEarnings)
	hasTop := make(map[int]bool)

	for _, ref := range refs {
		totals[ref.MemberID] += ref.Value
		hours[ref.MemberID] += childHours[ref.RecordID]
		if ref.Value > 0 {
			counts[ref.MemberID]++
		}
		if !hasTop[ref.MemberID] || ref.Value > top[ref.MemberID].Value {
			hasTop[ref.MemberID] = true
			top[ref.MemberID] = models.TopEarnings{
				Value: ref.Value,
				Payer: ref.Payer,
				Role:  ref.Role,
			}
		}
	}

	for _, mp := range ds.All() {
		mp.OutsideEarnings = totals[mp.ID]
		mp.OutsideHours = hours[mp.ID]
		mp.EarningsSources = counts[mp.ID]
		mp.TopEarnings = top[mp.ID]
	}

	RankAndPercentile(ds, "outside_earnings", func(mp *models.MP) float64 {
		return mp.OutsideEarnings
	}, false)

	logger.Info("[earnings] Reconciled %d employment relationships across %d child payment groups",
		len(refs), len(childValues))
	return nil
}

func writeCombinedEarnings(path string, refs []models.EarningsRef) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("earnings: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("earnings: create %q: %w", path, err)
	}
	defer f.Close()

	sorted := make([]models.EarningsRef, len(refs))
	copy(sorted, refs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordID < sorted[j].RecordID
	})

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ID", "MNIS ID", "PayerName", "JobTitle", "Value"}); err != nil {
		return fmt.Errorf("earnings: write header: %w", err)
	}
	for _, ref := range sorted {
		record := []string{
			ref.RecordID,
			strconv.Itoa(ref.MemberID),
			ref.Payer,
			ref.Role,
			strconv.FormatFloat(ref.Value, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("earnings: write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
