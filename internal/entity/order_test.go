package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingRequestValidate(t *testing.T) {
	tests := []struct {
		name        string
		req         BookingRequest
		wantErr     bool
		errContains string
	}{
		{
			name: "valid request",
			req:  BookingRequest{CustomerName: "Jane Doe", CameraID: "canon-r5", StartDate: "2024-07-01", EndDate: "2024-07-04"},
		},
		{
			name: "unknown camera is still valid",
			req:  BookingRequest{CustomerName: "Jane Doe", CameraID: "nope", StartDate: "2024-07-01", EndDate: "2024-07-04"},
		},
		{
			name:        "blank customer name",
			req:         BookingRequest{CustomerName: "   ", StartDate: "2024-07-01", EndDate: "2024-07-04"},
			wantErr:     true,
			errContains: "customer name",
		},
		{
			name:        "missing end date",
			req:         BookingRequest{CustomerName: "Jane", StartDate: "2024-07-01"},
			wantErr:     true,
			errContains: "dates are required",
		},
		{
			name:        "unparseable start date",
			req:         BookingRequest{CustomerName: "Jane", StartDate: "07/01/2024", EndDate: "2024-07-04"},
			wantErr:     true,
			errContains: "start date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestCatalogFind(t *testing.T) {
	catalog := Catalog{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}

	m, ok := catalog.Find("b")
	require.True(t, ok)
	assert.Equal(t, "Beta", m.Name)

	_, ok = catalog.Find("c")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-06-01 ")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 0, d.Hour())

	_, err = ParseDate("June 1st")
	assert.Error(t, err)
}
