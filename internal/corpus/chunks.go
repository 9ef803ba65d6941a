package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ChunkPlan is a stable assignment of input files to output chunk files.
// The assignment is persisted so repeated runs only reprocess chunks whose
// membership changed.
type ChunkPlan struct {
	// Chunks maps each output file to its assigned input files.
	Chunks map[string][]string
	// Dirty lists output files whose contents must be regenerated.
	Dirty map[string]bool
}

// OutputFiles returns the planned output files in sorted order.
func (p *ChunkPlan) OutputFiles() []string {
	out := make([]string, 0, len(p.Chunks))
	for f := range p.Chunks {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// PlanChunks assigns inputs to output chunks of at most maxChunk files,
// reusing the assignment stored in stateFile. Inputs that disappeared mark
// their chunk dirty (and its output file is deleted so it regenerates);
// new inputs fill the newest chunk before opening fresh ones. The updated
// assignment is written back to stateFile.
func PlanChunks(inputs []string, stateFile, outDir, pattern string, maxChunk int) (*ChunkPlan, error) {
	if maxChunk < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxChunk)
	}

	assigned := make(map[string]string) // input -> output file
	if data, err := os.ReadFile(stateFile); err == nil {
		var stored map[string][]string
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("reading chunk state %s: %w", stateFile, err)
		}
		for outFile, chunk := range stored {
			for _, in := range chunk {
				if prev, dup := assigned[in]; dup {
					return nil, fmt.Errorf("chunk state %s assigns %s to both %s and %s",
						stateFile, in, prev, outFile)
				}
				assigned[in] = outFile
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	dirty := make(map[string]bool)

	// Inputs that vanished dirty their chunk so it is rebuilt without them.
	inputSet := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		inputSet[in] = true
	}
	for in, outFile := range assigned {
		if !inputSet[in] {
			dirty[outFile] = true
			delete(assigned, in)
		}
	}

	// Continue filling the newest chunk before opening a new one.
	currentChunk := ""
	currentSize := 0
	if len(assigned) > 0 {
		outs := make([]string, 0, len(assigned))
		for _, o := range assigned {
			outs = append(outs, o)
		}
		sort.Strings(outs)
		currentChunk = outs[len(outs)-1]
		for _, o := range assigned {
			if o == currentChunk {
				currentSize++
			}
		}
	}

	namer := newOutputNamer(outDir, pattern)
	for _, in := range inputs {
		if _, ok := assigned[in]; ok {
			continue
		}
		if currentChunk == "" || currentSize >= maxChunk {
			next, err := namer.next()
			if err != nil {
				return nil, err
			}
			currentChunk = next
			currentSize = 0
		}
		assigned[in] = currentChunk
		dirty[currentChunk] = true
		currentSize++
	}

	for outFile := range dirty {
		if err := os.Remove(outFile); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	chunks := make(map[string][]string)
	for in, outFile := range assigned {
		chunks[outFile] = append(chunks[outFile], in)
	}
	for _, chunk := range chunks {
		sorted := SortReleases(chunk)
		copy(chunk, sorted)
	}

	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	if err := os.WriteFile(stateFile, data, 0644); err != nil {
		return nil, err
	}

	return &ChunkPlan{Chunks: chunks, Dirty: dirty}, nil
}

// outputNamer hands out output file names from a printf pattern with a
// single integer slot, skipping names that already exist on disk.
type outputNamer struct {
	dir     string
	pattern string
	i       int
}

func newOutputNamer(dir, pattern string) *outputNamer {
	return &outputNamer{dir: dir, pattern: pattern}
}

func (n *outputNamer) next() (string, error) {
	for attempts := 0; attempts < 10000; attempts++ {
		candidate := filepath.Join(n.dir, fmt.Sprintf(n.pattern, n.i))
		n.i++
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no unused output name for pattern %s in %s", n.pattern, n.dir)
}
