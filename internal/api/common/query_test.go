package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "absent", query: "", want: nil},
		{name: "repeated", query: "?metric=HR&metric=AVG", want: []string{"HR", "AVG"}},
		{name: "comma separated", query: "?metric=HR,AVG", want: []string{"HR", "AVG"}},
		{name: "mixed with blanks", query: "?metric=HR,,%20&metric=OPS", want: []string{"HR", "OPS"}},
		{name: "names with spaces", query: "?metric=Aaron%20Judge", want: []string{"Aaron Judge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/panels/mlb-batting"+tt.query, nil)
			assert.Equal(t, tt.want, QueryList(req, "metric"))
		})
	}
}

func TestQueryValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "absent", query: "", want: nil},
		{name: "repeated", query: "?name=Aaron%20Judge&name=Juan%20Soto", want: []string{"Aaron Judge", "Juan Soto"}},
		{name: "comma kept", query: "?name=Smith%2C%20John", want: []string{"Smith, John"}},
		{name: "blanks dropped", query: "?name=%20&name=Soto", want: []string{"Soto"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/panels/mlb-batting"+tt.query, nil)
			assert.Equal(t, tt.want, QueryValues(req, "name"))
		})
	}
}

func TestQueryNonNegativeFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		want    *float64
		wantErr string
	}{
		{name: "absent", query: ""},
		{name: "integer", query: "?min=100", want: ptr(100)},
		{name: "decimal", query: "?min=12.5", want: ptr(12.5)},
		{name: "zero", query: "?min=0", want: ptr(0)},
		{name: "not a number", query: "?min=lots", wantErr: "min must be a number"},
		{name: "nan", query: "?min=NaN", wantErr: "min must be a number"},
		{name: "infinite", query: "?min=Inf", wantErr: "min must be a number"},
		{name: "negative", query: "?min=-1", wantErr: "min must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/panels/mlb-batting"+tt.query, nil)

			got, err := QueryNonNegativeFloat(req, "min")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func ptr(f float64) *float64 {
	return &f
}
