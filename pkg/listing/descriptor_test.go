package listing

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	defaults := FetchDescriptor{First: 20, SortDirection: SortDesc, OrderBy: "updatedAt"}

	tests := []struct {
		name    string
		query   string
		want    FetchDescriptor
		wantErr bool
	}{
		{name: "defaults", query: "", want: defaults},
		{
			name:  "all params",
			query: "first=5&offset=10&sortDirection=ASC&orderBy=studyName",
			want:  FetchDescriptor{First: 5, Offset: 10, SortDirection: SortAsc, OrderBy: "studyName"},
		},
		{name: "first too large", query: "first=101", wantErr: true},
		{name: "first zero", query: "first=0", wantErr: true},
		{name: "first not a number", query: "first=ten", wantErr: true},
		{name: "negative offset", query: "offset=-1", wantErr: true},
		{name: "bad direction", query: "sortDirection=up", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := ParseDescriptor(q, defaults)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDescriptor_FillsDirection(t *testing.T) {
	got, err := ParseDescriptor(url.Values{}, FetchDescriptor{First: 10})
	require.NoError(t, err)
	assert.Equal(t, SortAsc, got.SortDirection)
}

func TestFetchDescriptor_Values(t *testing.T) {
	d := FetchDescriptor{First: 5, Offset: 15, SortDirection: SortDesc, OrderBy: "name"}
	got, err := ParseDescriptor(d.Values(), FetchDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestSortDirection_Flip(t *testing.T) {
	assert.Equal(t, SortDesc, SortAsc.Flip())
	assert.Equal(t, SortAsc, SortDesc.Flip())
}
