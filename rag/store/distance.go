package store

import "math"

// CosineSimilarity calculates cosine similarity between two float32 vectors.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DotProduct returns the dot product of two vectors, 0 for mismatched lengths
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// EuclideanDistance returns the L2 distance of two vectors, +Inf for mismatched lengths
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// score ranks v against query so that a higher value is always better.
func (d Distance) score(query, v []float32) float64 {
	switch d {
	case Dot:
		return DotProduct(query, v)
	case Euclid:
		return -EuclideanDistance(query, v)
	default:
		return CosineSimilarity(query, v)
	}
}
