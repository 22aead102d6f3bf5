package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"workshop-planner/internal/domain"
)

func emp(id string) domain.Employee {
	return domain.Employee{ID: id, Name: id, DailyCapacityMinutes: 480}
}

func order(id, prio string, cards int, ref time.Time) domain.Order {
	return domain.Order{ID: id, Number: "N-" + id, PriorityCode: prio, CardCount: cards, ReferenceDate: ref}
}

func orderIDs(as []domain.Assignment) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.OrderID)
	}
	return out
}

func TestEngine_BalancesTwoGraders(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	ref := planDay.AddDate(0, 0, -3)

	out := e.Assign(domain.StageGrading, planDay,
		[]domain.Order{order("O2", "C", 5, ref), order("O1", "X", 10, ref)},
		[]domain.Employee{emp("E2"), emp("E1")},
	)

	require.Len(t, out.Assignments, 2)
	o1, o2 := out.Assignments[0], out.Assignments[1]

	require.Equal(t, "O1", o1.OrderID)
	require.Equal(t, "E1", o1.EmployeeID)
	require.Equal(t, 30, o1.DurationMinutes)
	require.Equal(t, at(planDay, 9, 0), o1.Start)
	require.Equal(t, at(planDay, 9, 30), o1.End)
	require.Equal(t, "X", o1.PriorityCode)

	require.Equal(t, "O2", o2.OrderID)
	require.Equal(t, "E2", o2.EmployeeID)
	require.Equal(t, 15, o2.DurationMinutes)
	require.Equal(t, at(planDay, 9, 0), o2.Start)

	totals := map[string]int{}
	for _, w := range out.Workloads {
		totals[w.Employee.ID] = w.TotalMinutes
	}
	require.Equal(t, map[string]int{"E1": 30, "E2": 15}, totals)

	for _, a := range out.Assignments {
		require.Equal(t, domain.StageGrading, a.Stage)
		require.Equal(t, domain.AssignmentScheduled, a.Status)
		require.Equal(t, planDay, a.PlanDate)
		require.Equal(t, planDay, a.WorkDate)
		require.NotEqual(t, [16]byte{}, [16]byte(a.ID))
	}
}

func TestEngine_PriorityThenAge(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	old := planDay.AddDate(0, 0, -10)
	recent := planDay.AddDate(0, 0, -1)

	out := e.Assign(domain.StageCertification, planDay, []domain.Order{
		order("e", "E", 1, old),
		order("c-new", "C", 1, recent),
		order("x", "X", 1, recent),
		order("c-old", "C", 1, old),
		order("fp", "F+", 1, recent),
		order("f", "F", 1, recent),
	}, []domain.Employee{emp("E1")})

	require.Equal(t, []string{"x", "fp", "f", "c-old", "c-new", "e"}, orderIDs(out.Assignments))
}

func TestEngine_StableOnFullTie(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	ref := planDay.AddDate(0, 0, -2)

	out := e.Assign(domain.StageGrading, planDay, []domain.Order{
		order("b", "F", 2, ref),
		order("a", "F", 2, ref),
		order("c", "F", 2, ref),
	}, []domain.Employee{emp("E1")})

	require.Equal(t, []string{"b", "a", "c"}, orderIDs(out.Assignments))
}

func TestEngine_ZeroCardOrders(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	ref := planDay.AddDate(0, 0, -1)
	orders := []domain.Order{order("empty", "X", 0, ref), order("full", "C", 4, ref)}

	graded := e.Assign(domain.StageGrading, planDay, orders, []domain.Employee{emp("E1")})
	require.Equal(t, []string{"full"}, orderIDs(graded.Assignments))
	require.Equal(t, 1, graded.Skipped)

	scanned := e.Assign(domain.StageScanning, planDay, orders, []domain.Employee{emp("S1")})
	require.Equal(t, []string{"empty", "full"}, orderIDs(scanned.Assignments))
	require.Zero(t, scanned.Skipped)
	for _, a := range scanned.Assignments {
		require.Equal(t, 5, a.DurationMinutes)
	}
}

func TestEngine_UnknownPriorityTreatedAsClassic(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	ref := planDay.AddDate(0, 0, -1)

	out := e.Assign(domain.StageGrading, planDay, []domain.Order{
		order("e", "E", 1, ref),
		order("z", "Z", 1, ref),
		order("blank", "", 1, ref),
	}, []domain.Employee{emp("E1")})

	require.Equal(t, 2, out.UnknownPriorities)
	require.Equal(t, []string{"z", "blank", "e"}, orderIDs(out.Assignments))
	require.Equal(t, "C", out.Assignments[0].PriorityCode)
}

func TestEngine_AlwaysPicksLeastLoaded(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	ref := planDay.AddDate(0, 0, -1)

	var orders []domain.Order
	for i := 0; i < 40; i++ {
		orders = append(orders, order(fmt.Sprintf("O%02d", i), []string{"X", "F", "C", "E"}[i%4], 1+i%7, ref))
	}
	emps := []domain.Employee{emp("E3"), emp("E1"), emp("E2"), emp("E1")}

	out := e.Assign(domain.StagePreparation, planDay, orders, emps)
	require.Len(t, out.Assignments, len(orders))
	require.Len(t, out.Workloads, 3)

	// replay: each pick must have been a minimum at its moment
	load := map[string]int{"E1": 0, "E2": 0, "E3": 0}
	maxDur := 0
	for _, a := range out.Assignments {
		for id, m := range load {
			require.LessOrEqual(t, load[a.EmployeeID], m, "order %s given to %s while %s was lighter", a.OrderID, a.EmployeeID, id)
		}
		load[a.EmployeeID] += a.DurationMinutes
		maxDur = max(maxDur, a.DurationMinutes)
	}

	lo, hi := load["E1"], load["E1"]
	for _, m := range load {
		lo, hi = min(lo, m), max(hi, m)
	}
	require.LessOrEqual(t, hi-lo, maxDur)
}

func TestEngine_NoOverlapPerEmployee(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	ref := planDay.AddDate(0, 0, -1)

	var orders []domain.Order
	for i := 0; i < 30; i++ {
		orders = append(orders, order(fmt.Sprintf("O%02d", i), "C", 20, ref))
	}
	out := e.Assign(domain.StageGrading, planDay, orders, []domain.Employee{emp("E1"), emp("E2")})

	byEmp := map[string][]domain.Assignment{}
	for _, a := range out.Assignments {
		byEmp[a.EmployeeID] = append(byEmp[a.EmployeeID], a)
	}
	for id, as := range byEmp {
		for i := 1; i < len(as); i++ {
			require.False(t, as[i].Start.Before(as[i-1].End.Add(5*time.Minute)), "overlap for %s", id)
		}
		for _, a := range as {
			require.False(t, a.End.After(at(a.Start, 18, 0)), "%s ends after day end", a.OrderID)
			require.Equal(t, domain.DateOf(a.Start), a.WorkDate)
			require.Equal(t, planDay, a.PlanDate)
		}
	}
	// 30 x 60 min over two graders does not fit in one day
	require.True(t, out.Assignments[len(out.Assignments)-1].WorkDate.After(planDay))
}

func TestEngine_EmptyInputs(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	out := e.Assign(domain.StageGrading, planDay, nil, []domain.Employee{emp("E1")})
	require.Empty(t, out.Assignments)
	require.Len(t, out.Workloads, 1)

	out = e.Assign(domain.StageGrading, planDay, []domain.Order{order("O1", "X", 1, planDay)}, nil)
	require.Empty(t, out.Assignments)
}

func TestEngine_NeverStartsBeforeDayStart(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	ref := planDay.AddDate(0, 0, -1)

	out := e.Assign(domain.StageGrading, planDay, []domain.Order{
		order("huge", "X", 334, ref),
		order("small", "C", 5, ref),
	}, []domain.Employee{emp("E1")})

	require.Len(t, out.Assignments, 2)
	for _, a := range out.Assignments {
		require.False(t, a.Start.Before(at(a.Start, 9, 0)), "%s starts at %s", a.OrderID, a.Start)
	}
	require.Equal(t, at(planDay.AddDate(0, 0, 1), 9, 0), out.Assignments[1].Start)
}
