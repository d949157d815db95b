package domain

import "testing"

func TestSanitizeLockedIndices(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"nil", nil, nil},
		{"in range", []int{0, 3, 15}, []int{0, 3, 15}},
		{"duplicates collapse", []int{5, 5, 5}, []int{5}},
		{"out of range dropped", []int{-1, 4, 16, 99}, []int{4}},
		{"all invalid", []int{-3, 20}, nil},
	}
	for _, tt := range tests {
		got := SanitizeLockedIndices(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("%s: kept %d indices, want %d (%v)", tt.name, len(got), len(tt.want), got)
			continue
		}
		for _, idx := range tt.want {
			if !got[idx] {
				t.Errorf("%s: index %d missing", tt.name, idx)
			}
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusQueued, false},
		{JobStatusProcessing, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v", tt.status, got)
		}
	}
}

func TestUserCanDownload(t *testing.T) {
	if (User{TotalSpentTHB: 29.99}).CanDownload() {
		t.Error("29.99 THB should not unlock download")
	}
	if !(User{TotalSpentTHB: DownloadSpendThresholdTHB}).CanDownload() {
		t.Error("threshold spend should unlock download")
	}
}
