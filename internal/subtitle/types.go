package subtitle

import (
	"time"

	"golang.org/x/text/language"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read(path string) (*File, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, subtitle *File) error
}

// Entry represents a single subtitle cue
type Entry struct {
	ID        string        // cue identifier, unique within a file
	StartTime time.Duration // start time
	EndTime   time.Duration // end time
	Text      string        // subtitle text, lines joined with "\n"
}

// File represents subtitle file
type File struct {
	Entries  []Entry
	Language language.Tag
	Format   string // e.g. SRT
	Path     string
}

// IndexOf returns the position of the entry with the given id, or -1.
func (f *File) IndexOf(id string) int {
	for i := range f.Entries {
		if f.Entries[i].ID == id {
			return i
		}
	}
	return -1
}
