package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderprep/pkg/contracts/domain"
)

func TestRecordValidator_MissingFields(t *testing.T) {
	complete := domain.RawOrder{
		OrderID:        "ORD-1",
		OrderDate:      "2024-01-01",
		DeliveryDate:   "2024-01-05",
		DeliveryStatus: "On Time",
	}

	tests := []struct {
		name   string
		mutate func(r *domain.RawOrder)
		want   []string
	}{
		{
			name:   "complete row",
			mutate: func(r *domain.RawOrder) {},
			want:   nil,
		},
		{
			name:   "optional fields may be empty",
			mutate: func(r *domain.RawOrder) { r.Region = ""; r.ShipDate = ""; r.ShippingCost = "" },
			want:   nil,
		},
		{
			name:   "missing order id",
			mutate: func(r *domain.RawOrder) { r.OrderID = "" },
			want:   []string{"order_id"},
		},
		{
			name: "several missing fields are sorted",
			mutate: func(r *domain.RawOrder) {
				r.DeliveryStatus = ""
				r.DeliveryDate = ""
				r.OrderDate = ""
			},
			want: []string{"delivery_date", "delivery_status", "order_date"},
		},
	}

	v := NewRecordValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := complete
			tt.mutate(&raw)

			missing, err := v.MissingFields(&raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, missing)
		})
	}
}

func TestRecordValidator_RequiredColumns(t *testing.T) {
	cols := NewRecordValidator().RequiredColumns()
	assert.Equal(t, []string{"order_id", "order_date", "delivery_date", "delivery_status"}, cols)
}
