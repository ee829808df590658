package dispatch

import (
	"math/rand"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
)

// Assigner partitions pending orders into k spatial groups, k = number of
// available vehicles. The k-means run is fully deterministic: fixed seed,
// fixed iteration cap, ties resolved by lowest centroid index.
type Assigner struct {
	seed    int64
	maxIter int
}

func NewAssigner(seed int64, maxIter int) *Assigner {
	if maxIter <= 0 {
		maxIter = 100
	}
	return &Assigner{
		seed:    seed,
		maxIter: maxIter,
	}
}

// Assign partitions orders into min(vehicleCount, len(orders)) groups.
// Returns ErrNoCapacity when orders exist but there are no vehicles.
// An empty order list yields an empty result without error.
func (a *Assigner) Assign(orders []models.Order, vehicleCount int) ([][]models.Order, error) {
	if len(orders) == 0 {
		return nil, nil
	}
	if vehicleCount <= 0 {
		return nil, types.ErrNoCapacity
	}

	k := vehicleCount
	if len(orders) < k {
		k = len(orders)
	}

	centroids := a.initialCentroids(orders, k)

	assignments := make([]int, len(orders))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < a.maxIter; iter++ {
		changed := false

		// Assignment step: nearest centroid, ties to the lowest index.
		for i, o := range orders {
			best := 0
			bestDist := o.Geo.DistanceTo(centroids[0])
			for c := 1; c < k; c++ {
				if d := o.Geo.DistanceTo(centroids[c]); d < bestDist {
					best = c
					bestDist = d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step: centroid moves to the mean of its members.
		// An empty cluster keeps its centroid in place.
		sumLat := make([]float64, k)
		sumLng := make([]float64, k)
		counts := make([]int, k)
		for i, o := range orders {
			c := assignments[i]
			sumLat[c] += o.Geo.Lat
			sumLng[c] += o.Geo.Lng
			counts[c]++
		}
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				centroids[c] = models.GeoPoint{
					Lat: sumLat[c] / float64(counts[c]),
					Lng: sumLng[c] / float64(counts[c]),
				}
			}
		}
	}

	groups := make([][]models.Order, k)
	for i, o := range orders {
		c := assignments[i]
		groups[c] = append(groups[c], o)
	}

	rebalanceEmpty(groups)

	return groups, nil
}

// initialCentroids picks k distinct order positions via a seeded shuffle.
// When fewer than k distinct positions exist, the remaining centroids repeat
// positions; rebalanceEmpty fixes up the resulting empty groups.
func (a *Assigner) initialCentroids(orders []models.Order, k int) []models.GeoPoint {
	seen := make(map[models.GeoPoint]struct{}, len(orders))
	distinct := make([]models.GeoPoint, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.Geo]; ok {
			continue
		}
		seen[o.Geo] = struct{}{}
		distinct = append(distinct, o.Geo)
	}

	rng := rand.New(rand.NewSource(a.seed))
	rng.Shuffle(len(distinct), func(i, j int) {
		distinct[i], distinct[j] = distinct[j], distinct[i]
	})

	centroids := make([]models.GeoPoint, k)
	for c := 0; c < k; c++ {
		centroids[c] = distinct[c%len(distinct)]
	}
	return centroids
}

// rebalanceEmpty moves one order from the currently largest group into each
// empty group. Groups can come out empty only when orders collapse onto fewer
// distinct positions than there are clusters; the contract still promises
// min(vehicleCount, len(orders)) groups with every group non-empty when
// len(orders) >= vehicleCount.
func rebalanceEmpty(groups [][]models.Order) {
	for c := range groups {
		if len(groups[c]) > 0 {
			continue
		}
		largest := -1
		for j := range groups {
			if len(groups[j]) > 1 && (largest == -1 || len(groups[j]) > len(groups[largest])) {
				largest = j
			}
		}
		if largest == -1 {
			return
		}
		last := len(groups[largest]) - 1
		groups[c] = append(groups[c], groups[largest][last])
		groups[largest] = groups[largest][:last]
	}
}
