package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeKPIs(t *testing.T) {
	data := marketplace()

	t.Run("All orders", func(t *testing.T) {
		k := ComputeKPIs(Project(data, UniversalOrderIDs(data)))

		assert.Equal(t, "190", k.TotalRevenue.String())
		assert.Equal(t, 4, k.TotalOrders)
		// C1 and C4 are the same person
		assert.Equal(t, 3, k.TotalCustomers)
		// the zero score on O3 is not counted
		assert.InDelta(t, 3.75, k.AvgReviewScore, 1e-9)
		assert.InDelta(t, 0.75, k.OnTimeDeliveryRate, 1e-9)
		assert.InDelta(t, 0.5, k.DeliveredOnScheduleRate, 1e-9)
		assert.True(t, k.HasReviewScore())
	})

	t.Run("Empty set is zero safe", func(t *testing.T) {
		k := ComputeKPIs(Project(data, NewOrderIDSet()))

		assert.True(t, k.TotalRevenue.IsZero())
		assert.Equal(t, 0, k.TotalOrders)
		assert.Equal(t, 0, k.TotalCustomers)
		assert.True(t, math.IsNaN(k.AvgReviewScore))
		assert.False(t, k.HasReviewScore())
		assert.Equal(t, 0.0, k.OnTimeDeliveryRate)
		assert.Equal(t, 0.0, k.DeliveredOnScheduleRate)
	})

	t.Run("AsMap", func(t *testing.T) {
		m := ComputeKPIs(Project(data, NewOrderIDSet("O1"))).AsMap()

		assert.Len(t, m, 6)
		assert.Equal(t, 100.0, m[KPITotalRevenue])
		assert.Equal(t, 1.0, m[KPITotalOrders])
		assert.Equal(t, 1.0, m[KPITotalCustomers])
		assert.Equal(t, 5.0, m[KPIAvgReviewScore])
		assert.Equal(t, 1.0, m[KPIOnTimeDeliveryRate])
		assert.Equal(t, 1.0, m[KPIDeliveredOnScheduleRate])
	})
}
