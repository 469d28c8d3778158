package evo

import (
	"math"
	"sort"

	"raceline/internal/model"
)

// Behavior-distance weights are fixed constants rather than configuration so
// novelty comparisons stay stable across runs.
const (
	behaviorPositionWeight   = 1.0
	behaviorCheckpointWeight = 50.0
	behaviorDistanceWeight   = 0.1

	// An empty archive treats the first-ever individual as maximally novel.
	emptyArchiveNovelty = 1000.0

	// The archive admits unconditionally until it holds this many entries.
	archiveBootstrapCount = 10
)

// BehaviorDistance measures how differently two individuals ended their runs:
// Euclidean final-position distance, checkpoint-count difference (heavily
// weighted) and distance-traveled difference (lightly weighted).
func BehaviorDistance(a, b model.Behavior) float64 {
	dx := a.FinalX - b.FinalX
	dy := a.FinalY - b.FinalY
	positionDist := math.Sqrt(dx*dx + dy*dy)
	checkpointDiff := math.Abs(float64(a.CheckpointsPassed - b.CheckpointsPassed))
	distanceDiff := math.Abs(a.TotalDistance - b.TotalDistance)

	return behaviorPositionWeight*positionDist +
		behaviorCheckpointWeight*checkpointDiff +
		behaviorDistanceWeight*distanceDiff
}

// NoveltyArchive keeps a FIFO-bounded history of behavior descriptors and
// scores new behaviors by their distance to the k nearest archived ones.
type NoveltyArchive struct {
	maxSize    int
	kNeighbors int
	threshold  float64
	entries    []model.Behavior
}

func NewNoveltyArchive(maxSize, kNeighbors int, threshold float64) *NoveltyArchive {
	if maxSize < 1 {
		maxSize = 1
	}
	if kNeighbors < 1 {
		kNeighbors = 1
	}
	return &NoveltyArchive{
		maxSize:    maxSize,
		kNeighbors: kNeighbors,
		threshold:  threshold,
	}
}

func (n *NoveltyArchive) Len() int {
	return len(n.entries)
}

// CalculateNovelty averages the distances to the k nearest archived
// behaviors, k = min(kNeighbors, archive size).
func (n *NoveltyArchive) CalculateNovelty(behavior model.Behavior) float64 {
	if len(n.entries) == 0 {
		return emptyArchiveNovelty
	}

	distances := make([]float64, len(n.entries))
	for i, entry := range n.entries {
		distances[i] = BehaviorDistance(behavior, entry)
	}
	sort.Float64s(distances)

	k := n.kNeighbors
	if k > len(distances) {
		k = len(distances)
	}
	total := 0.0
	for i := 0; i < k; i++ {
		total += distances[i]
	}
	return total / float64(k)
}

// MaybeAdd admits the behavior when its novelty clears the threshold or while
// the archive is still bootstrapping. On overflow the oldest entry is evicted
// first (recency over retained novelty).
func (n *NoveltyArchive) MaybeAdd(behavior model.Behavior, novelty float64) bool {
	if novelty <= n.threshold && len(n.entries) >= archiveBootstrapCount {
		return false
	}
	n.entries = append(n.entries, behavior)
	if len(n.entries) > n.maxSize {
		n.entries = n.entries[1:]
	}
	return true
}
