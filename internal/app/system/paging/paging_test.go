package paging

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Page
	}{
		{"defaults", 0, 0, Page{1, DefaultLimit}},
		{"negative page", -3, 20, Page{1, 20}},
		{"capped limit", 2, 500, Page{2, MaxLimit}},
		{"as given", 3, 25, Page{3, 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.page, tt.limit); got != tt.want {
				t.Errorf("Normalize(%d, %d) = %+v, want %+v", tt.page, tt.limit, got, tt.want)
			}
		})
	}
}

func TestSkip(t *testing.T) {
	if got := Normalize(2, 10).Skip(); got != 10 {
		t.Errorf("Skip() = %d, want 10", got)
	}
	if got := Normalize(1, 10).Skip(); got != 0 {
		t.Errorf("Skip() = %d, want 0", got)
	}
}

func TestTotalPages(t *testing.T) {
	p := Normalize(1, 10)
	tests := []struct {
		total int64
		want  int
	}{
		{0, 0},
		{1, 1},
		{10, 1},
		{11, 2},
		{25, 3},
	}
	for _, tt := range tests {
		if got := p.TotalPages(tt.total); got != tt.want {
			t.Errorf("TotalPages(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}
