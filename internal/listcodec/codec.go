// Package listcodec converts between ordered slices and the linked-list
// record encoding used by the document store. Collection order is persisted
// as a per-record pointer to the next sibling instead of an array index, so
// inserts, moves, and deletes at arbitrary positions touch O(1) documents.
package listcodec

import "sort"

// Record is the stored shape of one collection member: its payload plus the
// id of the record that follows it. A nil NextID marks the tail.
type Record[ID ~string, T any] struct {
	Content T
	NextID  *ID
}

// Item pairs an id with its payload, in decoded list order.
type Item[ID ~string, T any] struct {
	ID      ID
	Content T
}

// Decode reconstructs the ordered list from a record map. It is independent
// of map iteration order: the head is the record no other record points to,
// and the list is rebuilt by following NextID pointers from there.
//
// Malformed input is tolerated rather than rejected. A NextID naming a record
// that is not in the map ends its chain; records left over after traversal
// (orphaned chains, cycles) are appended afterwards in their own chain order,
// secondary chains taken in ascending head-id order so the result stays
// deterministic.
func Decode[ID ~string, T any](records map[ID]Record[ID, T]) []Item[ID, T] {
	if len(records) == 0 {
		return []Item[ID, T]{}
	}

	// A record is a head candidate when nothing points to it.
	pointedTo := make(map[ID]bool, len(records))
	for _, rec := range records {
		if rec.NextID != nil {
			pointedTo[*rec.NextID] = true
		}
	}

	visited := make(map[ID]bool, len(records))
	out := make([]Item[ID, T], 0, len(records))

	walk := func(start ID) {
		current := start
		for {
			rec, ok := records[current]
			if !ok || visited[current] {
				return
			}
			visited[current] = true
			out = append(out, Item[ID, T]{ID: current, Content: rec.Content})
			if rec.NextID == nil {
				return
			}
			current = *rec.NextID
		}
	}

	var heads []ID
	for id := range records {
		if !pointedTo[id] {
			heads = append(heads, id)
		}
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i] < heads[j] })
	for _, h := range heads {
		walk(h)
	}

	// Anything still unvisited sits on a cycle; break it at the smallest id.
	if len(out) < len(records) {
		var rest []ID
		for id := range records {
			if !visited[id] {
				rest = append(rest, id)
			}
		}
		sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
		for _, id := range rest {
			walk(id)
		}
	}

	return out
}

// Encode converts an ordered list into its record map: each item points at
// the id of the item after it, and the last item gets a nil NextID.
func Encode[ID ~string, T any](items []Item[ID, T]) map[ID]Record[ID, T] {
	records := make(map[ID]Record[ID, T], len(items))
	for i, item := range items {
		var next *ID
		if i+1 < len(items) {
			id := items[i+1].ID
			next = &id
		}
		records[item.ID] = Record[ID, T]{Content: item.Content, NextID: next}
	}
	return records
}

// Position names the neighbors of an insertion slot. A nil PrevID means the
// item becomes the new head, a nil NextID means it becomes the new tail.
type Position[ID ~string] struct {
	PrevID *ID
	NextID *ID
}

// ResolvePosition computes which siblings bracket the slot at index in ids,
// with itemID itself excluded from consideration (it may already be in the
// list when resolving a move). Indices outside [0, len] append. The caller
// must patch the returned predecessor's pointer and, when the item moved from
// elsewhere, the old predecessor's pointer in the same batch; applying only
// one side leaves a dangling or duplicated link.
func ResolvePosition[ID ~string](ids []ID, itemID ID, index int) Position[ID] {
	working := make([]ID, 0, len(ids))
	for _, id := range ids {
		if id != itemID {
			working = append(working, id)
		}
	}

	slot := index
	if slot < 0 || slot > len(working) {
		slot = len(working)
	}

	var pos Position[ID]
	if slot > 0 {
		id := working[slot-1]
		pos.PrevID = &id
	}
	if slot < len(working) {
		id := working[slot]
		pos.NextID = &id
	}
	return pos
}

// SpliceAt returns ids with itemID placed at the slot ResolvePosition would
// resolve for index. It is the array-splice reference semantics the pointer
// patches must reproduce, shared by the in-memory repository.
func SpliceAt[ID ~string](ids []ID, itemID ID, index int) []ID {
	working := make([]ID, 0, len(ids)+1)
	for _, id := range ids {
		if id != itemID {
			working = append(working, id)
		}
	}

	slot := index
	if slot < 0 || slot > len(working) {
		slot = len(working)
	}

	out := make([]ID, 0, len(working)+1)
	out = append(out, working[:slot]...)
	out = append(out, itemID)
	out = append(out, working[slot:]...)
	return out
}
