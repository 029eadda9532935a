package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderprep/internal/shared/testutil"
	"orderprep/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	want := day(2024, time.January, 5)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"iso date", "2024-01-05", want, false},
		{"iso datetime", "2024-01-05 13:45:00", want, false},
		{"rfc3339 keeps written day", "2024-01-05T23:30:00+05:00", want, false},
		{"iso without zone", "2024-01-05T08:00:00", want, false},
		{"slashed iso", "2024/01/05", want, false},
		{"us padded", "01/05/2024", want, false},
		{"us unpadded", "1/5/2024", want, false},
		{"us with time", "1/5/2024 17:20", want, false},
		{"us short year", "1/5/24", want, false},
		{"day first dashed", "05-01-2024", want, false},
		{"month name", "Jan 5, 2024", want, false},
		{"day month name", "5 Jan 2024", want, false},
		{"excel serial", "45296", want, false},
		{"padded", "  2024-01-05 ", want, false},
		{"empty", "", time.Time{}, true},
		{"garbage", "not a date", time.Time{}, true},
		{"serial out of range", "12345", time.Time{}, true},
		{"invalid month", "2024-13-01", time.Time{}, true},
		{"zero day", "0001-01-01", time.Time{}, true},
		{"before range", "1899-12-31", time.Time{}, true},
		{"after range", "2200-01-01", time.Time{}, true},
		{"range start", "1900-01-01", day(1900, time.January, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", day(2024, 1, 1), day(2024, 1, 1), 0},
		{"forward", day(2024, 1, 1), day(2024, 1, 8), 7},
		{"backward", day(2024, 1, 8), day(2024, 1, 1), -7},
		{"leap day", day(2024, 2, 28), day(2024, 3, 1), 2},
		{"year boundary", day(2023, 12, 30), day(2024, 1, 2), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, daysBetween(tt.a, tt.b))
		})
	}
}

func TestDateNormalizer_Normalize(t *testing.T) {
	ds := &domain.Dataset{Orders: []domain.Order{
		rawOrder("ok", "2024-01-01", "2024-01-05", "On Time"),
		rawOrder("bad-order", "yesterday", "2024-01-05", "On Time"),
		rawOrder("bad-delivery", "2024-01-01", "soon", "Delayed"),
		rawOrder("missing", "", "2024-01-05", "On Time"),
		rawOrder("bad-ship", "2024-01-01", "2024-01-05", "On Time"),
		rawOrder("zero-order", "0001-01-01", "2024-01-05", "On Time"),
	}}
	ds.Orders[3].Flag(domain.IssueMissingField, "missing order_date")
	ds.Orders[4].Raw.ShipDate = "??"

	stats := NewDateNormalizer(testutil.Logger(t)).Normalize(context.Background(), ds)

	assert.Equal(t, DateStats{Parsed: 2, MalformedOrder: 2, MalformedDelivery: 1, UnparsedShip: 1}, stats)

	assert.Equal(t, day(2024, 1, 1), ds.Orders[0].OrderDate)
	assert.Equal(t, day(2024, 1, 5), ds.Orders[0].DeliveryDate)
	assert.Equal(t, domain.IssueNone, ds.Orders[0].QualityIssue)

	assert.Equal(t, domain.IssueMalformedOrderDate, ds.Orders[1].QualityIssue)
	assert.Contains(t, ds.Orders[1].IssueDetail, "yesterday")
	assert.Equal(t, domain.IssueMalformedDeliveryDate, ds.Orders[2].QualityIssue)
	assert.Equal(t, domain.IssueMissingField, ds.Orders[3].QualityIssue, "first blocking issue wins")

	assert.True(t, ds.Orders[4].ShipDate.IsZero())
	assert.Equal(t, domain.IssueNone, ds.Orders[4].QualityIssue, "ship date is rebuilt later")

	assert.True(t, ds.Orders[5].OrderDate.IsZero())
	assert.Equal(t, domain.IssueMalformedOrderDate, ds.Orders[5].QualityIssue)
	assert.Contains(t, ds.Orders[5].IssueDetail, "out of range")
}

// rawOrder builds a loaded, not yet normalized order
func rawOrder(id, orderDate, deliveryDate, status string) domain.Order {
	return domain.Order{
		OrderID:        id,
		DeliveryStatus: status,
		Raw: domain.RawOrder{
			OrderID:        id,
			OrderDate:      orderDate,
			DeliveryDate:   deliveryDate,
			DeliveryStatus: status,
		},
	}
}

// datedOrder builds an order whose dates are already normalized
func datedOrder(id string, orderDate, deliveryDate time.Time, status string) domain.Order {
	o := rawOrder(id, orderDate.Format(time.DateOnly), deliveryDate.Format(time.DateOnly), status)
	o.OrderDate = orderDate
	o.DeliveryDate = deliveryDate
	return o
}
