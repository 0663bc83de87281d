// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package stubserver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"math"
)

// embeddingDims is the length of every pseudo face embedding.
const embeddingDims = 8

// animals is the fixed pool of animal match results.
var animals = []string{
	"golden retriever", "red fox", "snow leopard", "barn owl",
	"sea otter", "arctic wolf", "fennec fox", "red panda",
}

// celebrities is the fixed pool of celebrity match targets. Each target's
// embedding is derived from its name, so the nearest match for a given
// upload is stable across runs.
var celebrities = []string{
	"Hana Sato", "Minho Kang", "Lena Park", "Diego Ruiz",
	"Amara Okafor", "Yuki Tanaka", "Sofia Laine", "Jae Woo",
}

// pseudoEmbedding derives a deterministic unit-scale vector from arbitrary
// bytes. Not a real face embedding — just stable, well-distributed numbers
// the similarity endpoints can compare.
func pseudoEmbedding(content []byte) []float64 {
	digest := sha256.Sum256(content)

	vector := make([]float64, embeddingDims)
	for i := range vector {
		// Four digest bytes per dimension, mapped onto [-1, 1].
		raw := binary.BigEndian.Uint32(digest[i*4 : i*4+4])
		vector[i] = float64(raw)/float64(math.MaxUint32)*2 - 1
	}
	return vector
}

// nameEmbedding derives the embedding for a named match target.
func nameEmbedding(name string) []float64 {
	return pseudoEmbedding([]byte(name))
}

// serializeEmbedding renders a vector the way the face service stores it:
// a JSON number array inside a string.
func serializeEmbedding(vector []float64) string {
	payload, _ := json.Marshal(vector)
	return string(payload)
}

// cosine computes the cosine similarity of two equal-length vectors.
// Returns 0 when either vector is degenerate.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// pickAnimal selects a stable animal match for an embedding.
func pickAnimal(vector []float64) (string, float64) {
	digest := sha256.Sum256([]byte(serializeEmbedding(vector)))
	animal := animals[int(digest[0])%len(animals)]
	// Confidence in [0.70, 0.99], stable per input.
	confidence := 0.70 + float64(digest[1]%30)/100
	return animal, confidence
}

// nearestCelebrity returns the pool member whose name-derived embedding is
// closest to the given vector, with the raw cosine score.
func nearestCelebrity(vector []float64) (name string, index int, score float64) {
	score = -2
	for i, candidate := range celebrities {
		s := cosine(vector, nameEmbedding(candidate))
		if s > score {
			score = s
			name = candidate
			index = i
		}
	}
	return name, index, score
}
