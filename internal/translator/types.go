package translator

import (
	"strings"

	"github.com/MimeLyc/gemini-sub-translator/internal/subtitle"
)

// Item is one subtitle cue as exchanged with the model.
type Item struct {
	Index   string `json:"index"`
	Content string `json:"content"`
}

// Batch is a contiguous slice of cues sent in one model call. StartLine is
// the 1-based position of the first cue in the subtitle file.
type Batch struct {
	StartLine int
	Items     []Item
}

// NewBatch builds the batch starting at the 1-based line start. It holds at
// most size entries and is empty once start runs past the end.
func NewBatch(entries []subtitle.Entry, start, size int) Batch {
	batch := Batch{StartLine: start}
	if start < 1 || size <= 0 || start > len(entries) {
		return batch
	}

	end := min(start-1+size, len(entries))
	batch.Items = make([]Item, 0, end-start+1)
	for _, entry := range entries[start-1 : end] {
		batch.Items = append(batch.Items, Item{Index: entry.ID, Content: entry.Text})
	}
	return batch
}

// Len returns the number of cues in the batch.
func (b Batch) Len() int {
	return len(b.Items)
}

// NextLine is the 1-based line following the batch.
func (b Batch) NextLine() int {
	return b.StartLine + len(b.Items)
}

// Contains reports whether index was sent in the batch.
func (b Batch) Contains(index string) bool {
	_, ok := b.Lookup(index)
	return ok
}

// Lookup returns the item sent under index.
func (b Batch) Lookup(index string) (Item, bool) {
	for _, item := range b.Items {
		if item.Index == index {
			return item, true
		}
	}
	return Item{}, false
}

// Blank reports whether no cue in the batch has text to translate.
func (b Batch) Blank() bool {
	for _, item := range b.Items {
		if strings.TrimSpace(item.Content) != "" {
			return false
		}
	}
	return true
}
