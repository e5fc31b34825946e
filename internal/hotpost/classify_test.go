package hotpost

import "testing"

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		profile   Profile
		reactions int
		users     int
		want      Tier
	}{
		{"standard below early", Standard, 4, 2, TierNone},
		{"standard early on reactions and users", Standard, 5, 2, TierEarly},
		{"standard early needs two users", Standard, 5, 1, TierNone},
		{"standard just below hot", Standard, 19, 5, TierEarly},
		{"standard hot", Standard, 20, 5, TierHot},
		{"standard hot needs five users", Standard, 20, 4, TierEarly},
		{"relaxed below early", Relaxed, 1, 1, TierNone},
		{"relaxed early", Relaxed, 2, 1, TierEarly},
		{"relaxed hot", Relaxed, 4, 1, TierHot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.profile)
			h := &Hotpost{ReactionCount: tt.reactions, UsersCount: tt.users}
			if got := c.Classify(h); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_HotIsTerminal(t *testing.T) {
	c := NewClassifier(Standard)
	h := &Hotpost{ReactionCount: 25, UsersCount: 6}

	if got := c.Classify(h); got != TierHot {
		t.Fatalf("first Classify() = %q, want hot", got)
	}
	if !h.IsHot {
		t.Fatal("IsHot not set")
	}

	// No re-evaluation and no second signal, even at higher counts.
	h.ReactionCount = 100
	h.UsersCount = 40
	if got := c.Classify(h); got != TierNone {
		t.Errorf("Classify() after hot = %q, want none", got)
	}

	// Counts dropping never unsets the latch.
	h.ReactionCount = 0
	h.UsersCount = 0
	if got := c.Classify(h); got != TierNone {
		t.Errorf("Classify() = %q, want none", got)
	}
	if !h.IsHot {
		t.Error("IsHot was reset")
	}
}

func TestClassify_EarlyFiresOnce(t *testing.T) {
	c := NewClassifier(Standard)
	h := &Hotpost{ReactionCount: 5, UsersCount: 2}

	if got := c.Classify(h); got != TierEarly {
		t.Fatalf("first Classify() = %q, want early", got)
	}
	if got := c.Classify(h); got != TierNone {
		t.Errorf("second Classify() = %q, want none", got)
	}
}

func TestClassify_EarlyLatchSurvivesCountDrop(t *testing.T) {
	c := NewClassifier(Standard)
	h := &Hotpost{ReactionCount: 5, UsersCount: 2}
	c.Classify(h)

	h.ReactionCount = 1
	h.UsersCount = 1
	if got := c.Classify(h); got != TierNone {
		t.Errorf("Classify() = %q, want none", got)
	}
	if !h.IsEarly {
		t.Error("IsEarly was reset after counts dropped")
	}
}

func TestClassify_HotWithoutEarlyLeavesEarlyFalse(t *testing.T) {
	// A post can jump straight to Hot; IsEarly is not set retroactively.
	c := NewClassifier(Standard)
	h := &Hotpost{ReactionCount: 20, UsersCount: 5}

	if got := c.Classify(h); got != TierHot {
		t.Fatalf("Classify() = %q, want hot", got)
	}
	if h.IsEarly {
		t.Error("IsEarly should stay false when hot fires directly")
	}
}

func TestClassify_HotFiresEvenWhenAlreadyEarly(t *testing.T) {
	c := NewClassifier(Standard)
	h := &Hotpost{ReactionCount: 5, UsersCount: 2}
	if got := c.Classify(h); got != TierEarly {
		t.Fatalf("Classify() = %q, want early", got)
	}

	h.ReactionCount = 20
	h.UsersCount = 5
	if got := c.Classify(h); got != TierHot {
		t.Errorf("Classify() = %q, want hot", got)
	}
}

func TestProfileByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "standard", false},
		{"standard", "standard", false},
		{"relaxed", "relaxed", false},
		{"aggressive", "", true},
	}

	for _, tt := range tests {
		p, err := ProfileByName(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ProfileByName(%q) expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ProfileByName(%q) failed: %v", tt.name, err)
			continue
		}
		if p.Name != tt.want {
			t.Errorf("ProfileByName(%q).Name = %q, want %q", tt.name, p.Name, tt.want)
		}
	}
}
