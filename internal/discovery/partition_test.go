package discovery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartition_RoundRobin(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, []string{"a", "d"}, Partition(files, &PartitionSpec{Split: 3, Partition: 1}))
	assert.Equal(t, []string{"b", "e"}, Partition(files, &PartitionSpec{Split: 3, Partition: 2}))
	assert.Equal(t, []string{"c"}, Partition(files, &PartitionSpec{Split: 3, Partition: 3}))
	assert.Equal(t, files, Partition(files, &PartitionSpec{Split: 1, Partition: 1}))
}

func TestPartition_InvalidSpecReturnsCopy(t *testing.T) {
	files := []string{"a", "b"}
	out := Partition(files, nil)
	assert.Equal(t, files, out)

	out[0] = "changed"
	assert.Equal(t, "a", files[0], "result must not alias the input")

	assert.Equal(t, files, Partition(files, &PartitionSpec{Split: 2, Partition: 3}))
	assert.Equal(t, files, Partition(files, &PartitionSpec{Split: 0, Partition: 1}))
}

func TestPartition_DisjointAndComplete(t *testing.T) {
	files := make([]string, 23)
	for i := range files {
		files[i] = fmt.Sprintf("f%02d", i)
	}
	for split := 1; split <= 7; split++ {
		seen := map[string]int{}
		for p := 1; p <= split; p++ {
			part := Partition(files, &PartitionSpec{Split: split, Partition: p})
			assert.Equal(t, part, Partition(files, &PartitionSpec{Split: split, Partition: p}), "deterministic")
			for _, f := range part {
				seen[f]++
			}
		}
		assert.Len(t, seen, len(files))
		for f, n := range seen {
			assert.Equal(t, 1, n, "file %s in more than one partition", f)
		}
	}
}

func TestPartition_Empty(t *testing.T) {
	assert.Empty(t, Partition(nil, &PartitionSpec{Split: 2, Partition: 1}))
}
