package export

import (
	"strconv"

	"govigil/domain/run"
)

// resultsHeaders is the column order every export format shares
var resultsHeaders = []string{"name", "true_label", "pred_label", "wrong_prediction"}

// resultsRows formats the summary into string cells matching resultsHeaders
func resultsRows(summary *run.ResultsSummary) [][]string {
	rows := make([][]string, 0, summary.Len())
	for _, row := range summary.Rows {
		rows = append(rows, []string{
			row.Name,
			strconv.Itoa(row.TrueLabel),
			strconv.Itoa(row.PredLabel),
			strconv.Itoa(row.WrongPrediction),
		})
	}
	return rows
}
