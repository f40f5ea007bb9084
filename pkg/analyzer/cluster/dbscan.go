package cluster

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	deierrors "github.com/panbanda/dei/pkg/errors"
)

// Noise labels a point that belongs to no cluster.
const Noise = -1

// DBSCAN labels each row of x with a cluster number starting at 0, or
// Noise. A row's neighborhood is every row within eps, itself included;
// rows with at least minPts neighbors are core points. Labels are assigned
// in row order, so the result is deterministic.
func DBSCAN(x *mat.Dense, eps float64, minPts int) ([]int, error) {
	n, _ := x.Dims()
	rows := make([][]float64, n)
	for i := range n {
		rows[i] = x.RawRowView(i)
		for _, v := range rows[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, deierrors.Clustering("non-finite feature in row %d", i)
			}
		}
	}
	if math.IsNaN(eps) || eps < 0 {
		return nil, deierrors.Clustering("invalid tolerance %v", eps)
	}
	minPts = max(minPts, 1)

	region := func(i int) []uint32 {
		var out []uint32
		for j := range n {
			if floats.Distance(rows[i], rows[j], 2) <= eps {
				out = append(out, uint32(j))
			}
		}
		return out
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	visited := roaring.New()
	cluster := 0
	for i := range n {
		if !visited.CheckedAdd(uint32(i)) {
			continue
		}
		neighbors := region(i)
		if len(neighbors) < minPts {
			continue
		}

		labels[i] = cluster
		queued := roaring.BitmapOf(neighbors...)
		queue := neighbors
		for k := 0; k < len(queue); k++ {
			j := queue[k]
			if labels[j] == Noise {
				labels[j] = cluster
			}
			if !visited.CheckedAdd(j) {
				continue
			}
			if more := region(int(j)); len(more) >= minPts {
				for _, q := range more {
					if queued.CheckedAdd(q) {
						queue = append(queue, q)
					}
				}
			}
		}
		cluster++
	}
	return labels, nil
}
