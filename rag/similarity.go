package rag

import "github.com/smallnest/ragagents/rag/store"

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// the lengths differ or either vector is zero
func CosineSimilarity(a, b []float32) float64 {
	return store.CosineSimilarity(a, b)
}

// DotProduct returns the dot product of a and b
func DotProduct(a, b []float32) float64 {
	return store.DotProduct(a, b)
}

// EuclideanDistance returns the L2 distance between a and b
func EuclideanDistance(a, b []float32) float64 {
	return store.EuclideanDistance(a, b)
}
