package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"orderprep/pkg/contracts/domain"
)

func TestIsDelayedStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Delayed", true},
		{"DELAYED", true},
		{"  delayed ", true},
		{"Late", true},
		{"delay", true},
		{"On Time", false},
		{"on_time", false},
		{"Delivered", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDelayedStatus(tt.status))
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, "on time", NormalizeStatus(" On_Time "))
	assert.Equal(t, "on time", NormalizeStatus("on-time"))
	assert.Equal(t, "on time", NormalizeStatus("On   Time"))
}

func TestApplyFlags(t *testing.T) {
	orders := []domain.Order{
		{DeliveryStatus: "Delayed"},
		{DeliveryStatus: "On Time"},
		{DeliveryStatus: ""},
		{DeliveryStatus: "late", OnTimeFlag: 1},
	}

	stats := ApplyFlags(orders)

	assert.Equal(t, FlagStats{OnTime: 2, Delayed: 2}, stats)
	for _, o := range orders {
		assert.Equal(t, 1, o.OnTimeFlag+o.DelayFlag, "exactly one flag is set for %q", o.DeliveryStatus)
	}
	assert.Equal(t, 0, orders[0].OnTimeFlag)
	assert.Equal(t, 1, orders[0].DelayFlag)
	assert.Equal(t, 1, orders[2].OnTimeFlag)
	assert.Equal(t, 0, orders[3].OnTimeFlag)
}
