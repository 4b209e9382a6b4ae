package sqlxrepos

import (
	"testing"

	"github.com/trezcool/miradi/core"
)

func Test_orderBy(t *testing.T) {
	tests := []struct {
		name     string
		ordering []core.DBOrdering
		columns  map[string]struct{}
		want     string
	}{
		{name: "no ordering", columns: userOrderColumns, want: ""},
		{
			name:     "single field",
			ordering: []core.DBOrdering{{Field: "name", Ascending: true}},
			columns:  userOrderColumns,
			want:     " ORDER BY name ASC",
		},
		{
			name: "multiple fields",
			ordering: []core.DBOrdering{
				{Field: "created_at"},
				{Field: "username", Ascending: true},
			},
			columns: userOrderColumns,
			want:    " ORDER BY created_at DESC, username ASC",
		},
		{
			name:     "unknown field dropped",
			ordering: []core.DBOrdering{{Field: "password_hash"}},
			columns:  userOrderColumns,
			want:     "",
		},
		{
			name:     "subquery never reaches the sql",
			ordering: []core.DBOrdering{{Field: `(SELECT password_hash FROM "user" LIMIT 1)`}},
			columns:  userOrderColumns,
			want:     "",
		},
		{
			name: "unknown fields dropped among valid ones",
			ordering: []core.DBOrdering{
				{Field: "status; DROP TABLE submission"},
				{Field: "submitted_at"},
			},
			columns: submissionOrderColumns,
			want:    " ORDER BY submitted_at DESC",
		},
		{
			name:     "column set is per repo",
			ordering: []core.DBOrdering{{Field: "title", Ascending: true}},
			columns:  groupOrderColumns,
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderBy(tt.ordering, tt.columns); got != tt.want {
				t.Errorf("orderBy() = %q; want %q", got, tt.want)
			}
		})
	}
}
