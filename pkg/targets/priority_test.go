package targets

import "testing"

func TestPriority(t *testing.T) {
	tests := []struct {
		ip   string
		want int
	}{
		{"192.168.38.1", PriorityTier1},
		{"192.168.38.254", PriorityTier1},
		{"192.168.38.3", PriorityTier2},
		{"192.168.38.8", PriorityTier3},
		{"192.168.38.100", PriorityTier4},
		{"192.168.38.157", PriorityTier5},
		{"192.168.38.229", PriorityTier6},
		{"192.168.38.255", PriorityTier7},
		{"fd00::1", PriorityTier6},
		{"not-an-ip", PriorityTier6},
	}

	for _, tt := range tests {
		if got := Priority(tt.ip); got != tt.want {
			t.Errorf("Priority(%s) = %d, want %d", tt.ip, got, tt.want)
		}
	}
}

func TestPrioritize(t *testing.T) {
	input := []string{"192.168.38.229", "192.168.38.157", "192.168.38.1", "192.168.38.184", "192.168.38.254"}
	got := Prioritize(input)

	want := []string{"192.168.38.1", "192.168.38.254", "192.168.38.157", "192.168.38.184", "192.168.38.229"}
	if len(got) != len(want) {
		t.Fatalf("Prioritize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	// input must be left untouched
	if input[0] != "192.168.38.229" {
		t.Error("Prioritize() modified its input")
	}
}
