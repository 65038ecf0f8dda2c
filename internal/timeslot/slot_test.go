package timeslot

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

func TestValidateSlot(t *testing.T) {
	tests := []struct {
		name    string
		slot    Slot
		wantErr bool
	}{
		{name: "valid", slot: Slot{StartDate: day(9), EndDate: day(11), Status: StatusActive}},
		{name: "start equals end", slot: Slot{StartDate: day(9), EndDate: day(9), Status: StatusActive}, wantErr: true},
		{name: "start after end", slot: Slot{StartDate: day(11), EndDate: day(9), Status: StatusActive}, wantErr: true},
		{name: "unknown status", slot: Slot{StartDate: day(9), EndDate: day(11), Status: "pending"}, wantErr: true},
		{name: "deleted is a legal status", slot: Slot{StartDate: day(9), EndDate: day(11), Status: StatusDeleted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.slot)
			if tt.wantErr {
				require.Equal(t, appErrors.ErrInvalidSlot.Code, appErrors.FromError(err).Code)
				return
			}
			require.NoError(t, err)
		})
	}
}
