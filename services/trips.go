package services

import (
	"fmt"

	"mp-watch/models"
	"mp-watch/utils"
)

// CollateTrips aggregates the category-4 overseas trips register onto the
// dataset. A trip's value is the sum of its per-donor value columns; rows
// without a qualifying end date are excluded. Trips feed the summary fields
// only, no narrative domain reads them.
func CollateTrips(ds *models.Dataset, path string, logger *utils.Logger) error {
	table, err := readCSVTable(path)
	if err != nil {
		return fmt.Errorf("trips: %w", err)
	}

	var rows []models.InterestRow
	for _, row := range table.rows {
		end := table.str(row, "EndDate")
		if end == "" || end < models.ElectionCutoff {
			continue
		}

		var value float64
		for i := 1; i <= 5; i++ {
			value += table.float(row, fmt.Sprintf("Donor_Value_%d", i))
		}

		rows = append(rows, models.InterestRow{
			RecordID:    table.str(row, "ID"),
			MemberID:    table.int(row, "MNIS ID"),
			Value:       value,
			Description: table.str(row, "PaymentDescription"),
			Donor:       table.str(row, "DonorName"),
		})
	}
	logger.Info("[trips] %d qualifying trip records", len(rows))

	summaries := Aggregate(ds, rows)
	for _, mp := range ds.All() {
		mp.Trips = summaries[mp.ID]
	}

	RankAndPercentile(ds, "trips_total", func(mp *models.MP) float64 {
		return mp.Trips.Total
	}, false)

	return nil
}
