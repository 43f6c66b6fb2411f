package arraytools

// Displacements computes the exclusive prefix sum of counts: displ[0] == 0
// and displ[i] == displ[i-1] + counts[i-1]. The returned slice has the same
// length as counts. This is the layout MPI-style variable-count collectives
// expect: displ[i] is the offset of rank i's block in a packed buffer.
func Displacements(counts []int) []int {
	displ := make([]int, len(counts))
	sum := 0
	for i, c := range counts {
		displ[i] = sum
		sum += c
	}
	return displ
}
