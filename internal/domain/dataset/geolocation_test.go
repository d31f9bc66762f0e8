package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceGeolocation(t *testing.T) {
	t.Run("Mean per prefix sorted by prefix", func(t *testing.T) {
		got := ReduceGeolocation([]GeolocationPoint{
			{ZipCodePrefix: 3, Lat: 1, Lng: 1, City: "c", State: "CC"},
			{ZipCodePrefix: 1, Lat: 0, Lng: 10, City: "a", State: "AA"},
			{ZipCodePrefix: 1, Lat: 4, Lng: 20, City: "a2", State: "AA"},
		})

		require.Len(t, got, 2)
		assert.Equal(t, GeolocationPoint{ZipCodePrefix: 1, Lat: 2, Lng: 15, City: "a", State: "AA"}, got[0])
		assert.Equal(t, 3, got[1].ZipCodePrefix)
	})

	t.Run("Points without coordinates are skipped", func(t *testing.T) {
		got := ReduceGeolocation([]GeolocationPoint{
			{ZipCodePrefix: 1, Lat: math.NaN(), Lng: 1},
			{ZipCodePrefix: 2, Lat: 5, Lng: math.NaN()},
			{ZipCodePrefix: 2, Lat: 6, Lng: 7},
		})

		require.Len(t, got, 1)
		assert.Equal(t, 2, got[0].ZipCodePrefix)
		assert.Equal(t, 6.0, got[0].Lat)
	})

	t.Run("Empty input", func(t *testing.T) {
		assert.Empty(t, ReduceGeolocation(nil))
	})

	t.Run("Reducing centroids is a no-op", func(t *testing.T) {
		once := ReduceGeolocation([]GeolocationPoint{
			{ZipCodePrefix: 1, Lat: 1, Lng: 2},
			{ZipCodePrefix: 1, Lat: 3, Lng: 4},
		})
		assert.Equal(t, once, ReduceGeolocation(once))
	})
}

func TestCentroidIndex(t *testing.T) {
	idx := CentroidIndex([]GeolocationPoint{
		{ZipCodePrefix: 1, City: "first"},
		{ZipCodePrefix: 1, City: "second"},
		{ZipCodePrefix: 2, City: "other"},
	})
	assert.Len(t, idx, 2)
	assert.Equal(t, "first", idx[1].City)
}
