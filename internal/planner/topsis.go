package planner

import (
	"math"
	"slices"
)

// rankTOPSIS orders the rows of matrix by descending closeness to the ideal solution using the Technique for Order
// of Preference by Similarity to Ideal Solution. All criteria are benefits. Equal scores keep row order.
func rankTOPSIS(matrix [][]float64, weights []float64) []int {
	if len(matrix) == 0 {
		return nil
	}
	cols := len(weights)

	norms := make([]float64, cols)
	for _, row := range matrix {
		for j := range cols {
			norms[j] += row[j] * row[j]
		}
	}
	for j := range norms {
		norms[j] = math.Sqrt(norms[j])
		if norms[j] == 0 {
			norms[j] = 1
		}
	}

	weighted := make([][]float64, len(matrix))
	ideal := make([]float64, cols)
	antiIdeal := make([]float64, cols)
	for i, row := range matrix {
		weighted[i] = make([]float64, cols)
		for j := range cols {
			v := row[j] / norms[j] * weights[j]
			weighted[i][j] = v
			if i == 0 || v > ideal[j] {
				ideal[j] = v
			}
			if i == 0 || v < antiIdeal[j] {
				antiIdeal[j] = v
			}
		}
	}

	closeness := make([]float64, len(matrix))
	for i, row := range weighted {
		var dPos, dNeg float64
		for j, v := range row {
			dPos += (v - ideal[j]) * (v - ideal[j])
			dNeg += (v - antiIdeal[j]) * (v - antiIdeal[j])
		}
		dPos, dNeg = math.Sqrt(dPos), math.Sqrt(dNeg)
		if dPos+dNeg > 0 {
			closeness[i] = dNeg / (dPos + dNeg)
		}
	}

	order := make([]int, len(matrix))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case closeness[a] > closeness[b]:
			return -1
		case closeness[a] < closeness[b]:
			return 1
		}
		return 0
	})
	return order
}
