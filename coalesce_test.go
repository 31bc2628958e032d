package sendchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectVectorsAdjacent(t *testing.T) {
	backing := genData(300)
	in := Chain{Mem(backing[0:100]), Mem(backing[100:150]), Mem(backing[150:300])}

	vec, size, pos := collectVectors(in, 0, nil, DefaultMaxVectors)
	require.Len(t, vec, 1)
	assert.Equal(t, backing, vec[0])
	assert.EqualValues(t, 300, size)
	assert.Equal(t, 3, pos)
}

func TestCollectVectorsSeparate(t *testing.T) {
	in := Chain{Mem(genData(10)), Mem(genData(20)), Mem(genData(30))}

	vec, size, pos := collectVectors(in, 0, nil, DefaultMaxVectors)
	assert.Equal(t, []int{10, 20, 30}, vecLens(vec))
	assert.EqualValues(t, 60, size)
	assert.Equal(t, 3, pos)
}

func TestCollectVectorsPartiallySent(t *testing.T) {
	backing := genData(100)
	first := Mem(backing[:40])
	first.Pos = 25
	in := Chain{first, Mem(backing[40:100])}

	vec, size, _ := collectVectors(in, 0, nil, DefaultMaxVectors)
	require.Len(t, vec, 1)
	assert.Equal(t, backing[25:], vec[0])
	assert.EqualValues(t, 75, size)
}

func TestCollectVectorsCapacityLimited(t *testing.T) {
	backing := genData(100)
	// The first slice can't be extended, even though the second one follows it in memory.
	in := Chain{Mem(backing[0:50:50]), Mem(backing[50:100])}

	vec, _, _ := collectVectors(in, 0, nil, DefaultMaxVectors)
	assert.Equal(t, []int{50, 50}, vecLens(vec))
}

func TestCollectVectorsSkipsMarkersAndEmpty(t *testing.T) {
	backing := genData(100)
	in := Chain{FlushMarker(), Mem(backing[0:30]), Mem(backing[30:30]), FlushMarker(), Mem(backing[30:100]), EOFMarker()}

	vec, size, pos := collectVectors(in, 0, nil, DefaultMaxVectors)
	assert.Equal(t, []int{100}, vecLens(vec))
	assert.EqualValues(t, 100, size)
	assert.Equal(t, len(in), pos)
}

func TestCollectVectorsStopsAtFile(t *testing.T) {
	f, _ := tempFile(t, "f", 10)
	in := Chain{Mem(genData(5)), FileRange(f, 0, 10), Mem(genData(5))}

	vec, size, pos := collectVectors(in, 0, nil, DefaultMaxVectors)
	assert.Equal(t, []int{5}, vecLens(vec))
	assert.EqualValues(t, 5, size)
	assert.Equal(t, 1, pos)

	vec, size, pos = collectVectors(in, 1, nil, DefaultMaxVectors)
	assert.Empty(t, vec)
	assert.Zero(t, size)
	assert.Equal(t, 1, pos)
}

func TestCollectVectorsMax(t *testing.T) {
	backing := genData(40)
	in := Chain{Mem(genData(10)), Mem(backing[0:20]), Mem(backing[20:40]), Mem(genData(10)), Mem(genData(10))}

	vec, size, pos := collectVectors(in, 0, nil, 2)
	// The adjacent third buffer still fits in the second entry; the fourth needs a new one.
	assert.Equal(t, []int{10, 40}, vecLens(vec))
	assert.EqualValues(t, 50, size)
	assert.Equal(t, 3, pos)
}

func TestMergeFileRun(t *testing.T) {
	f, _ := tempFile(t, "f", 1000)
	g, _ := tempFile(t, "g", 1000)
	tests := []struct {
		name     string
		in       Chain
		limit    int64
		wantFile bool
		wantOff  int64
		wantSize int64
		wantPos  int
	}{
		{
			name:     "contiguous",
			in:       Chain{FileRange(f, 0, 100), FileRange(f, 100, 250), FileRange(f, 250, 1000)},
			wantFile: true, wantOff: 0, wantSize: 1000, wantPos: 3,
		},
		{
			name:     "gap",
			in:       Chain{FileRange(f, 0, 100), FileRange(f, 200, 300)},
			wantFile: true, wantOff: 0, wantSize: 100, wantPos: 1,
		},
		{
			name:     "overlap",
			in:       Chain{FileRange(f, 0, 100), FileRange(f, 50, 300)},
			wantFile: true, wantOff: 0, wantSize: 100, wantPos: 1,
		},
		{
			name:     "different file",
			in:       Chain{FileRange(f, 0, 100), FileRange(g, 100, 300)},
			wantFile: true, wantOff: 0, wantSize: 100, wantPos: 1,
		},
		{
			name:     "marker between",
			in:       Chain{FileRange(f, 0, 100), FlushMarker(), FileRange(f, 100, 300)},
			wantFile: true, wantOff: 0, wantSize: 300, wantPos: 3,
		},
		{
			name:     "followed by memory",
			in:       Chain{FileRange(f, 500, 600), Mem(genData(4)), FileRange(f, 600, 700)},
			wantFile: true, wantOff: 500, wantSize: 100, wantPos: 1,
		},
		{
			name:     "limit inside buffer",
			in:       Chain{FileRange(f, 0, 100), FileRange(f, 100, 300)},
			limit:    150,
			wantFile: true, wantOff: 0, wantSize: 150, wantPos: 1,
		},
		{
			name:     "limit at buffer boundary",
			in:       Chain{FileRange(f, 0, 100), FileRange(f, 100, 300)},
			limit:    100,
			wantFile: true, wantOff: 0, wantSize: 100, wantPos: 1,
		},
		{
			name:    "memory",
			in:      Chain{Mem(genData(4)), FileRange(f, 0, 100)},
			wantPos: 0,
		},
		{
			name:    "end of chain",
			in:      Chain{},
			wantPos: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			run, pos := mergeFileRun(tc.in, 0, tc.limit)
			assert.Equal(t, tc.wantPos, pos)
			if !tc.wantFile {
				assert.Nil(t, run)
				return
			}
			require.NotNil(t, run)
			assert.Same(t, tc.in[0].File, run.file)
			assert.Equal(t, tc.wantOff, run.off)
			assert.Equal(t, tc.wantSize, run.size)
		})
	}
}

func TestMergeFileRunPartiallySent(t *testing.T) {
	f, _ := tempFile(t, "f", 300)
	first := FileRange(f, 0, 100)
	first.FilePos = 60
	in := Chain{first, FileRange(f, 100, 300)}

	run, pos := mergeFileRun(in, 0, 0)
	require.NotNil(t, run)
	assert.EqualValues(t, 60, run.off)
	assert.EqualValues(t, 240, run.size)
	assert.Equal(t, 2, pos)
}
