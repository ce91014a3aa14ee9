package util

import (
	"math/rand/v2"
	"testing"

	"github.com/aiwolfdial/imposter-server/model"
)

type sequenceRandom struct {
	values []int
	calls  int
}

func (s *sequenceRandom) IntN(n int) int {
	v := s.values[s.calls%len(s.values)]
	s.calls++
	return v % n
}

func session(roles ...model.Role) *model.SessionState {
	players := make([]string, len(roles))
	return model.NewSessionState("test", "Food", "Pizza", players, roles)
}

func TestCalcOutcomePriority(t *testing.T) {
	t.Run("imposter eliminated with many alive", func(t *testing.T) {
		s := session(model.R_IMPOSTER, model.R_CIVILIAN, model.R_CIVILIAN, model.R_CIVILIAN, model.R_CIVILIAN)
		s.Alive[0] = false
		if got := CalcOutcome(s, 0); got != model.O_CIVILIANS {
			t.Fatalf("outcome = %s, want civilians", got)
		}
	})
	t.Run("imposter eliminated leaving two alive", func(t *testing.T) {
		s := session(model.R_CIVILIAN, model.R_IMPOSTER, model.R_CIVILIAN)
		s.Alive[1] = false
		if got := CalcOutcome(s, 1); got != model.O_CIVILIANS {
			t.Fatalf("outcome = %s, want civilians", got)
		}
	})
	t.Run("jester eliminated", func(t *testing.T) {
		s := session(model.R_CIVILIAN, model.R_JESTER, model.R_IMPOSTER, model.R_CIVILIAN)
		s.Alive[1] = false
		if got := CalcOutcome(s, 1); got != model.O_JESTER {
			t.Fatalf("outcome = %s, want jester", got)
		}
	})
	t.Run("jester eliminated into final pair", func(t *testing.T) {
		s := session(model.R_CIVILIAN, model.R_JESTER, model.R_IMPOSTER)
		s.Alive[1] = false
		if got := CalcOutcome(s, 1); got != model.O_JESTER {
			t.Fatalf("outcome = %s, want jester", got)
		}
	})
	t.Run("final pair with imposter", func(t *testing.T) {
		s := session(model.R_CIVILIAN, model.R_CIVILIAN, model.R_IMPOSTER)
		s.Alive[0] = false
		if got := CalcOutcome(s, 0); got != model.O_IMPOSTER {
			t.Fatalf("outcome = %s, want imposter", got)
		}
	})
	t.Run("continue", func(t *testing.T) {
		s := session(model.R_CIVILIAN, model.R_CIVILIAN, model.R_IMPOSTER, model.R_CIVILIAN)
		s.Alive[0] = false
		if got := CalcOutcome(s, 0); got != model.O_CONTINUE {
			t.Fatalf("outcome = %s, want continue", got)
		}
	})
}

func TestPickRandomIndexExcept(t *testing.T) {
	rnd := &sequenceRandom{values: []int{0, 1, 2}}
	if got := PickRandomIndexExcept(rnd, 4, 0, 2); got != 1 {
		t.Fatalf("first pick = %d, want 1", got)
	}
	if got := PickRandomIndexExcept(rnd, 4, 0, 2); got != 3 {
		t.Fatalf("second pick = %d, want 3", got)
	}
	if got := PickRandomIndexExcept(rnd, 2, 0, 1); got != -1 {
		t.Fatalf("exhausted pick = %d, want -1", got)
	}
	if rnd.calls != 2 {
		t.Fatalf("calls = %d, want one draw per successful pick", rnd.calls)
	}
}

func TestAssignRolesSmallRosterIgnoresSpecialRoles(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	for range 100 {
		counts := CountRoles(AssignRoles(rnd, 3, true, true))
		if counts[model.R_IMPOSTER] != 1 || counts[model.R_CIVILIAN] != 2 {
			t.Fatalf("counts = %v", counts)
		}
	}
}

func TestAssignRolesDistinctIndexes(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 4))
	for n := 4; n <= 10; n++ {
		for range 50 {
			roles := AssignRoles(rnd, n, true, true)
			counts := CountRoles(roles)
			if counts[model.R_IMPOSTER] != 1 || counts[model.R_JESTER] != 1 || counts[model.R_SHERIFF] != 1 {
				t.Fatalf("n=%d counts = %v", n, counts)
			}
			if counts[model.R_CIVILIAN] != n-3 {
				t.Fatalf("n=%d civilians = %d", n, counts[model.R_CIVILIAN])
			}
		}
	}
}

func TestAssignRolesFlags(t *testing.T) {
	rnd := rand.New(rand.NewPCG(5, 6))
	counts := CountRoles(AssignRoles(rnd, 6, false, true))
	if counts[model.R_JESTER] != 0 || counts[model.R_SHERIFF] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	counts = CountRoles(AssignRoles(rnd, 6, true, false))
	if counts[model.R_JESTER] != 1 || counts[model.R_SHERIFF] != 0 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestAssignRolesDeterministic(t *testing.T) {
	rnd := &sequenceRandom{values: []int{2, 0, 1}}
	roles := AssignRoles(rnd, 4, true, true)
	want := []model.Role{model.R_JESTER, model.R_CIVILIAN, model.R_IMPOSTER, model.R_SHERIFF}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
}
