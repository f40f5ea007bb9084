package cluster

import (
	"github.com/cespare/xxhash/v2"
	"github.com/surgebase/porter2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	deierrors "github.com/panbanda/dei/pkg/errors"
	"github.com/panbanda/dei/pkg/models"
)

// Features returns the feature strings of a method: stemmed identifier
// tokens plus the fields it touches and the methods it calls.
func Features(m models.MethodMetrics) []string {
	out := make([]string, 0, len(m.Tokens)+len(m.AccessedFields)+len(m.CalledMethods))
	for _, tok := range m.Tokens {
		out = append(out, porter2.Stem(tok))
	}
	for _, f := range m.AccessedFields {
		out = append(out, "field:"+f)
	}
	for _, c := range m.CalledMethods {
		out = append(out, "call:"+c)
	}
	return out
}

// Featurize hashes each method's features into dims buckets and returns the
// L2-normalized rows as a len(methods) x dims matrix. Methods without
// features keep a zero row.
func Featurize(methods []models.MethodMetrics, dims int) (*mat.Dense, error) {
	if dims <= 0 {
		return nil, deierrors.Clustering("feature dimensions must be positive, got %d", dims)
	}
	if len(methods) == 0 {
		return nil, deierrors.Clustering("no methods to featurize")
	}

	data := make([]float64, len(methods)*dims)
	for i, m := range methods {
		row := data[i*dims : (i+1)*dims]
		for _, f := range Features(m) {
			row[xxhash.Sum64String(f)%uint64(dims)]++
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
	}
	return mat.NewDense(len(methods), dims, data), nil
}
