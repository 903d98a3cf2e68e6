package diff

// computeMasks builds the mask vector described in §3/§4.3.
//
// Starting from i=0, push mask_i = (1<<(i*factor))-1 while mask_i < size,
// stop once mask_i >= size, then reverse so masks[len(masks)-1] is 0 and
// masks[0] is the largest value. Cascade level k (1..levels, see
// buildSummaries) is built with masks[k]: as k climbs from 1 (the summary
// level just above the leaf) to levels (the root), masks[k] falls
// monotonically to 0, so the root table aggregates every row into a
// single group. masks[0] itself (the value that first reached >= size) is
// never used to build a table — it only marks where the ascending search
// stopped, one step finer than any real summary level needs. If maxLevels
// > 0 and less than len(masks), truncate to the top maxLevels entries
// (§9's documented-intent resolution of the unreachable guard in the
// source).
func computeMasks(size int64, factor, maxLevels int) []uint32 {
	if size <= 0 {
		return []uint32{0}
	}

	var asc []uint32
	for i := 0; ; i++ {
		m := maskAt(i, factor)
		asc = append(asc, m)
		if uint64(m) >= uint64(size) {
			break
		}
	}

	// reverse asc so the array ends at 0: masks[len(masks)-1] is the
	// root's mask, masks[0] is the largest value and goes unused
	masks := make([]uint32, len(asc))
	for i, m := range asc {
		masks[len(asc)-1-i] = m
	}

	if maxLevels > 0 && maxLevels < len(masks) {
		masks = masks[len(masks)-maxLevels:]
	}
	return masks
}

// maskAt returns (1<<(i*factor))-1, saturating at the 32-bit ceiling
// (factor is already clamped to [1,30] by Options.resolve, so i*factor
// can still exceed 32 for large i; stop the arithmetic from overflowing).
func maskAt(i, factor int) uint32 {
	shift := i * factor
	if shift >= 32 {
		return 0xFFFFFFFF
	}
	return uint32(1<<uint(shift)) - 1
}
