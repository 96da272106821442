package blkhdr

// ReleaseFunc releases the block whose header lives at base.
type ReleaseFunc func(base uintptr) error

// ReleaseList walks head -> head.Next() -> ... until it reaches a zero
// address or sentinel, calling release on each node's base address in
// turn.
//
// The first release failure stops the walk and is returned. Blocks already
// released stay released — the walk cannot be rolled back, since the
// header bytes that describe the rest of the list are themselves part of
// the memory just handed back to the provider. Callers must not reference
// the list, or any block in it, after this call returns — even on error.
func ReleaseList(head uintptr, sentinel uintptr, release ReleaseFunc) error {
	for cur := head; cur != 0 && cur != sentinel; {
		next := At(cur).next
		if err := release(cur); err != nil {
			return err
		}
		cur = next
	}
	return nil
}
