package phase

import "testing"

func TestShouldProgress_Phase1Gate(t *testing.T) {
	tests := []struct {
		name       string
		age        int
		risk       float64
		errors     int
		engagement float64
		want       bool
	}{
		{"all clear", 30, 0.29, 2, 0.011, true},
		{"well clear", 90, 0.0, 0, 0.05, true},
		{"one day short", 29, 0.1, 0, 0.05, false},
		{"risk at ceiling", 45, 0.3, 0, 0.05, false},
		{"errors at ceiling", 45, 0.1, 3, 0.05, false},
		{"engagement at floor", 45, 0.1, 0, 0.01, false},
		{"everything failing", 5, 0.9, 10, 0.001, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, next := ShouldProgress(Phase1, tt.age, tt.risk, tt.errors, tt.engagement)
			if ok != tt.want {
				t.Fatalf("ShouldProgress = %v, want %v", ok, tt.want)
			}
			if tt.want && next != Phase2 {
				t.Errorf("next = %s, want phase_2", next)
			}
			if !tt.want && next != Phase1 {
				t.Errorf("next = %s, want phase_1 unchanged", next)
			}
		})
	}
}

func TestShouldProgress_Phase2Gate(t *testing.T) {
	// 65 days old, risk 0.2, no errors, 5% engagement clears the phase_3 gate.
	ok, next := ShouldProgress(Phase2, 65, 0.2, 0, 0.05)
	if !ok || next != Phase3 {
		t.Fatalf("got (%v, %s), want (true, phase_3)", ok, next)
	}

	// Phase_2 gate is stricter than phase_1: 45 days is not enough.
	if ok, _ := ShouldProgress(Phase2, 45, 0.2, 0, 0.05); ok {
		t.Error("45-day account should not reach phase_3")
	}
	if ok, _ := ShouldProgress(Phase2, 65, 0.4, 0, 0.05); ok {
		t.Error("risk at 0.4 ceiling should block promotion")
	}
	if ok, _ := ShouldProgress(Phase2, 65, 0.2, 5, 0.05); ok {
		t.Error("5 errors should block promotion")
	}
	if ok, _ := ShouldProgress(Phase2, 65, 0.2, 0, 0.02); ok {
		t.Error("engagement at 0.02 floor should block promotion")
	}
}

func TestShouldProgress_Phase3IsTerminal(t *testing.T) {
	ok, next := ShouldProgress(Phase3, 1000, 0.0, 0, 0.5)
	if ok {
		t.Fatal("phase_3 must never progress")
	}
	if next != Phase3 {
		t.Errorf("next = %s, want phase_3", next)
	}
}

func TestShouldProgress_UnknownPhase(t *testing.T) {
	ok, next := ShouldProgress(Phase("bogus"), 1000, 0, 0, 0.5)
	if ok {
		t.Fatal("unknown phase must not progress")
	}
	if next != Phase("bogus") {
		t.Errorf("next = %s, want input unchanged", next)
	}
}

func TestNext(t *testing.T) {
	if Phase1.Next() != Phase2 {
		t.Error("phase_1 next should be phase_2")
	}
	if Phase2.Next() != Phase3 {
		t.Error("phase_2 next should be phase_3")
	}
	if Phase3.Next() != Phase3 {
		t.Error("phase_3 next should stay phase_3")
	}
}

func TestValid(t *testing.T) {
	for _, p := range []Phase{Phase1, Phase2, Phase3} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if Phase("").Valid() || Phase("phase_4").Valid() {
		t.Error("unknown phases should be invalid")
	}
}

func TestSettings_Values(t *testing.T) {
	s1 := Settings(Phase1)
	if s1.FollowsPerHour != 5 || s1.LikesPerHour != 10 || s1.CommentsPerHour != 0 {
		t.Errorf("phase_1 rates = %d/%d/%d, want 5/10/0", s1.FollowsPerHour, s1.LikesPerHour, s1.CommentsPerHour)
	}
	if s1.MinDelaySeconds != 120 || s1.MaxDelaySeconds != 480 || s1.BatchSize != 3 {
		t.Errorf("phase_1 pacing = %d-%ds batch %d, want 120-480s batch 3", s1.MinDelaySeconds, s1.MaxDelaySeconds, s1.BatchSize)
	}
	if s1.PlatformWeights["tiktok"] != 1.0 {
		t.Errorf("phase_1 tiktok weight = %v, want 1.0", s1.PlatformWeights["tiktok"])
	}

	s2 := Settings(Phase2)
	if s2.FollowsPerHour != 15 || s2.CommentsPerHour != 5 || s2.BatchSize != 5 {
		t.Errorf("phase_2 settings wrong: %+v", s2)
	}
	if s2.PlatformWeights["instagram"] != 0.4 {
		t.Errorf("phase_2 instagram weight = %v, want 0.4", s2.PlatformWeights["instagram"])
	}

	s3 := Settings(Phase3)
	if s3.FollowsPerHour != 25 || s3.LikesPerHour != 40 || s3.CommentsPerHour != 10 {
		t.Errorf("phase_3 rates wrong: %+v", s3)
	}
	if s3.PlatformWeights["twitter"] != 0.15 {
		t.Errorf("phase_3 twitter weight = %v, want 0.15", s3.PlatformWeights["twitter"])
	}
}

func TestSettings_UnknownPhaseFallsBackToPhase1(t *testing.T) {
	s := Settings(Phase("bogus"))
	if s.FollowsPerHour != 5 {
		t.Errorf("unknown phase should get phase_1 settings, got %+v", s)
	}
}

func TestSettings_ReturnsCopy(t *testing.T) {
	s := Settings(Phase2)
	s.PlatformWeights["tiktok"] = 99
	if Settings(Phase2).PlatformWeights["tiktok"] != 0.6 {
		t.Error("mutating a returned settings copy must not affect the table")
	}
}
