package dataset

import (
	"math"
	"sort"
)

// ReduceGeolocation collapses raw coordinates to one centroid per zip-code
// prefix: the mean latitude and longitude, with the first-seen city and state.
// Points with a missing coordinate are skipped. The result is sorted by prefix,
// and reducing a set of centroids returns the same centroids.
func ReduceGeolocation(points []GeolocationPoint) []GeolocationPoint {
	type acc struct {
		point    GeolocationPoint
		lat, lng float64
		n        int
	}
	byPrefix := make(map[int]*acc)
	for _, p := range points {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
			continue
		}
		a, ok := byPrefix[p.ZipCodePrefix]
		if !ok {
			a = &acc{point: p}
			byPrefix[p.ZipCodePrefix] = a
		}
		a.lat += p.Lat
		a.lng += p.Lng
		a.n++
	}

	out := make([]GeolocationPoint, 0, len(byPrefix))
	for _, a := range byPrefix {
		c := a.point
		c.Lat = a.lat / float64(a.n)
		c.Lng = a.lng / float64(a.n)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ZipCodePrefix < out[j].ZipCodePrefix
	})
	return out
}

// CentroidIndex returns the centroids keyed by zip-code prefix
func CentroidIndex(centroids []GeolocationPoint) map[int]GeolocationPoint {
	idx := make(map[int]GeolocationPoint, len(centroids))
	for _, c := range centroids {
		if _, ok := idx[c.ZipCodePrefix]; !ok {
			idx[c.ZipCodePrefix] = c
		}
	}
	return idx
}
