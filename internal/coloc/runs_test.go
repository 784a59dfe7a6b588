package coloc

import "testing"

func tableOf(channels []string, rows ...Row) *Table {
	return &Table{Channels: channels, Rows: rows}
}

func TestDetectRunsSingleRun(t *testing.T) {
	table := tableOf([]string{"a", "b"},
		Row{Frame: 0, IDs: Tuple{NewID(0), NewID(1)}},
		Row{Frame: 1, IDs: Tuple{NewID(0), NewID(1)}},
		Row{Frame: 2, IDs: Tuple{NewID(0), NewID(1)}},
	)
	intervals := DetectRuns(table)
	if len(intervals) != 1 {
		t.Fatalf("got %d intervals, want 1: %v", len(intervals), intervals)
	}
	iv := intervals[0]
	if iv.StartFrame != 0 || iv.EndFrame != 2 {
		t.Errorf("interval = [%d, %d], want [0, 2]", iv.StartFrame, iv.EndFrame)
	}
}

func TestDetectRunsSplitsOnGap(t *testing.T) {
	ids := Tuple{NewID(4), NewID(2)}
	table := tableOf([]string{"a", "b"},
		Row{Frame: 0, IDs: ids},
		Row{Frame: 1, IDs: ids},
		Row{Frame: 5, IDs: ids},
		Row{Frame: 6, IDs: ids},
		Row{Frame: 9, IDs: ids},
	)
	intervals := DetectRuns(table)
	want := []Interval{
		{IDs: ids, StartFrame: 0, EndFrame: 1},
		{IDs: ids, StartFrame: 5, EndFrame: 6},
		{IDs: ids, StartFrame: 9, EndFrame: 9},
	}
	if len(intervals) != len(want) {
		t.Fatalf("got %d intervals, want %d: %v", len(intervals), len(want), intervals)
	}
	for i := range want {
		if intervals[i].StartFrame != want[i].StartFrame || intervals[i].EndFrame != want[i].EndFrame {
			t.Errorf("interval %d = [%d, %d], want [%d, %d]", i,
				intervals[i].StartFrame, intervals[i].EndFrame, want[i].StartFrame, want[i].EndFrame)
		}
	}
}

func TestDetectRunsAbsentIsAKeyValue(t *testing.T) {
	// (3, absent) and (3, 0) are different groups; two (3, absent) rows
	// in consecutive frames belong to the same group.
	table := tableOf([]string{"a", "b"},
		Row{Frame: 0, IDs: Tuple{NewID(3), Absent}},
		Row{Frame: 1, IDs: Tuple{NewID(3), Absent}},
		Row{Frame: 1, IDs: Tuple{NewID(3), NewID(0)}},
	)
	intervals := DetectRuns(table)
	if len(intervals) != 2 {
		t.Fatalf("got %d intervals, want 2: %v", len(intervals), intervals)
	}
	// Present ids sort before absent ones.
	if !intervals[0].IDs.Equal(Tuple{NewID(3), NewID(0)}) {
		t.Errorf("interval 0 tuple = %v, want (3, 0)", intervals[0].IDs)
	}
	if !intervals[1].IDs.Equal(Tuple{NewID(3), Absent}) {
		t.Errorf("interval 1 tuple = %v, want (3, absent)", intervals[1].IDs)
	}
	if intervals[1].StartFrame != 0 || intervals[1].EndFrame != 1 {
		t.Errorf("absent-keyed run = [%d, %d], want [0, 1]",
			intervals[1].StartFrame, intervals[1].EndFrame)
	}
}

func TestDetectRunsUnsortedInput(t *testing.T) {
	ids := Tuple{NewID(0), NewID(1)}
	table := tableOf([]string{"a", "b"},
		Row{Frame: 4, IDs: ids},
		Row{Frame: 2, IDs: ids},
		Row{Frame: 3, IDs: ids},
	)
	intervals := DetectRuns(table)
	if len(intervals) != 1 {
		t.Fatalf("got %d intervals, want 1: %v", len(intervals), intervals)
	}
	if intervals[0].StartFrame != 2 || intervals[0].EndFrame != 4 {
		t.Errorf("interval = [%d, %d], want [2, 4]", intervals[0].StartFrame, intervals[0].EndFrame)
	}
}

func TestDetectRunsOrderingAndMaximality(t *testing.T) {
	a := Tuple{NewID(0), NewID(1)}
	b := Tuple{NewID(0), Absent}
	table := tableOf([]string{"a", "b"},
		Row{Frame: 0, IDs: b},
		Row{Frame: 3, IDs: b},
		Row{Frame: 0, IDs: a},
		Row{Frame: 1, IDs: a},
	)
	intervals := DetectRuns(table)
	if len(intervals) != 3 {
		t.Fatalf("got %d intervals, want 3: %v", len(intervals), intervals)
	}
	if !intervals[0].IDs.Equal(a) {
		t.Errorf("tuple with no absent entries must sort first, got %v", intervals[0].IDs)
	}

	// No two intervals of one tuple may touch: a gap separates every
	// pair, otherwise the runs were not maximal.
	byKey := map[string][]Interval{}
	for _, iv := range intervals {
		if iv.StartFrame > iv.EndFrame {
			t.Errorf("interval %v has start after end", iv)
		}
		byKey[iv.IDs.Key()] = append(byKey[iv.IDs.Key()], iv)
	}
	for key, ivs := range byKey {
		for i := 1; i < len(ivs); i++ {
			if ivs[i].StartFrame <= ivs[i-1].EndFrame+1 {
				t.Errorf("tuple %s: intervals %v and %v overlap or touch", key, ivs[i-1], ivs[i])
			}
		}
	}
}
