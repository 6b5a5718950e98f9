package listcodec

import (
	"fmt"
	"testing"
)

// buildList creates an ordered list of n items with ids "id-0".."id-n-1"
func buildList(n int) []Item[string, string] {
	items := make([]Item[string, string], 0, n)
	for i := 0; i < n; i++ {
		items = append(items, Item[string, string]{
			ID:      fmt.Sprintf("id-%d", i),
			Content: fmt.Sprintf("content-%d", i),
		})
	}
	return items
}

func assertOrder(t *testing.T, got []Item[string, string], want []Item[string, string]) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("decoded %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("position %d: got id %q, want %q", i, got[i].ID, want[i].ID)
		}
		if got[i].Content != want[i].Content {
			t.Errorf("position %d: got content %q, want %q", i, got[i].Content, want[i].Content)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 25} {
		t.Run(fmt.Sprintf("length_%d", n), func(t *testing.T) {
			items := buildList(n)
			// Go map iteration order is randomized, so every run exercises a
			// different arrival order for free.
			got := Decode(Encode(items))
			assertOrder(t, got, items)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	got := Decode(map[string]Record[string, string]{})
	if got == nil {
		t.Fatal("Decode of empty map should return empty slice, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d items", len(got))
	}
}

func TestEncodePointers(t *testing.T) {
	items := buildList(3)
	records := Encode(items)

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if next := records["id-0"].NextID; next == nil || *next != "id-1" {
		t.Errorf("id-0 should point to id-1, got %v", next)
	}
	if next := records["id-1"].NextID; next == nil || *next != "id-2" {
		t.Errorf("id-1 should point to id-2, got %v", next)
	}
	if records["id-2"].NextID != nil {
		t.Error("tail record should have nil NextID")
	}
}

func TestDecodeDanglingPointer(t *testing.T) {
	// id-1 points at a record that is not in the set. The chain breaks there
	// and the record is treated as tail-ward.
	missing := "gone"
	next1 := "id-1"
	records := map[string]Record[string, string]{
		"id-0": {Content: "a", NextID: &next1},
		"id-1": {Content: "b", NextID: &missing},
	}

	got := Decode(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].ID != "id-0" || got[1].ID != "id-1" {
		t.Errorf("expected [id-0 id-1], got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestDecodeCycleTerminates(t *testing.T) {
	// A pointer cycle must not hang decode; every record still appears once.
	a, b := "a", "b"
	records := map[string]Record[string, string]{
		"a": {Content: "1", NextID: &b},
		"b": {Content: "2", NextID: &a},
	}

	got := Decode(records)
	if len(got) != 2 {
		t.Fatalf("expected both records to survive a cycle, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, item := range got {
		if seen[item.ID] {
			t.Fatalf("record %q visited twice", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestResolvePositionMatchesSplice(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}

	cases := []struct {
		name   string
		itemID string
		index  int
		want   []string
	}{
		{"insert_head", "x", 0, []string{"x", "a", "b", "c", "d"}},
		{"insert_middle", "x", 2, []string{"a", "b", "x", "c", "d"}},
		{"insert_tail_exact", "x", 4, []string{"a", "b", "c", "d", "x"}},
		{"insert_out_of_range", "x", 99, []string{"a", "b", "c", "d", "x"}},
		{"insert_negative", "x", -1, []string{"a", "b", "c", "d", "x"}},
		{"move_to_head", "c", 0, []string{"c", "a", "b", "d"}},
		{"move_down", "a", 2, []string{"b", "c", "a", "d"}},
		{"move_out_of_range", "b", 50, []string{"a", "c", "d", "b"}},
		{"move_same_slot", "b", 1, []string{"a", "b", "c", "d"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spliced := SpliceAt(ids, tc.itemID, tc.index)
			if len(spliced) != len(tc.want) {
				t.Fatalf("splice produced %v, want %v", spliced, tc.want)
			}
			for i := range tc.want {
				if spliced[i] != tc.want[i] {
					t.Fatalf("splice produced %v, want %v", spliced, tc.want)
				}
			}

			// The resolved neighbors must be exactly the items around the
			// spliced position.
			pos := ResolvePosition(ids, tc.itemID, tc.index)
			at := -1
			for i, id := range spliced {
				if id == tc.itemID {
					at = i
					break
				}
			}
			if at == -1 {
				t.Fatalf("item %q missing from spliced list", tc.itemID)
			}

			if at == 0 {
				if pos.PrevID != nil {
					t.Errorf("expected nil PrevID at head, got %q", *pos.PrevID)
				}
			} else if pos.PrevID == nil || *pos.PrevID != spliced[at-1] {
				t.Errorf("PrevID = %v, want %q", pos.PrevID, spliced[at-1])
			}

			if at == len(spliced)-1 {
				if pos.NextID != nil {
					t.Errorf("expected nil NextID at tail, got %q", *pos.NextID)
				}
			} else if pos.NextID == nil || *pos.NextID != spliced[at+1] {
				t.Errorf("NextID = %v, want %q", pos.NextID, spliced[at+1])
			}
		})
	}
}

func TestResolvePositionEmptyList(t *testing.T) {
	pos := ResolvePosition([]string{}, "x", 0)
	if pos.PrevID != nil || pos.NextID != nil {
		t.Errorf("empty list should resolve to no neighbors, got %+v", pos)
	}
}

func TestSplicePreservesCardinality(t *testing.T) {
	ids := []string{"a", "b", "c"}
	for idx := -2; idx < 6; idx++ {
		got := SpliceAt(ids, "b", idx)
		if len(got) != 3 {
			t.Fatalf("index %d: moving within list changed length to %d", idx, len(got))
		}
		count := 0
		for _, id := range got {
			if id == "b" {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("index %d: item appears %d times after move", idx, count)
		}
	}
}
