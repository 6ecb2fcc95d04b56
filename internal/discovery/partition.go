package discovery

// PartitionSpec selects one slice of a file list so several processes can
// share a build. Partition is 1-based.
type PartitionSpec struct {
	Split     int
	Partition int
}

// Valid reports whether the spec describes a real partition. Anything else
// means "no partitioning".
func (s *PartitionSpec) Valid() bool {
	return s != nil && s.Split >= 1 && s.Partition >= 1 && s.Partition <= s.Split
}

// Partition returns the files belonging to spec, assigned round robin: the
// item at index i belongs to partition (i mod split)+1. Output keeps input
// order. A nil or invalid spec returns a copy of files.
func Partition(files []string, spec *PartitionSpec) []string {
	if !spec.Valid() {
		out := make([]string, len(files))
		copy(out, files)
		return out
	}
	out := make([]string, 0, len(files)/spec.Split+1)
	for i, f := range files {
		if i%spec.Split+1 == spec.Partition {
			out = append(out, f)
		}
	}
	return out
}
