package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

var srtTimeRe = regexp.MustCompile(`(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})`)

// DefaultReader is the default subtitle file reader
type DefaultReader struct{}

// NewReader creates a new subtitle file reader
func NewReader() Reader {
	return &DefaultReader{}
}

// Read reads an SRT file from disk.
func (r *DefaultReader) Read(path string) (*File, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".srt") {
		return nil, fmt.Errorf("only SRT format subtitle files are supported: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("subtitle file does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}

	return ReadSRTBytes(data, path)
}

// ReadSRTBytes parses SRT content held in memory. path is only recorded on
// the returned File.
func ReadSRTBytes(data []byte, path string) (*File, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	entries, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return &File{
		Entries:  entries,
		Language: detectLanguage(entries),
		Format:   "SRT",
		Path:     path,
	}, nil
}

// Parse reads SRT cues from r. Cues are returned in file order.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := Entry{}
	state := "index" // possible values: "index", "time", "text"
	var textLines []string

	flush := func() {
		current.Text = strings.Join(textLines, "\n")
		entries = append(entries, current)
		current = Entry{}
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r \t")

		switch state {
		case "index":
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if srtTimeRe.MatchString(trimmed) {
				// cue without an identifier line
				current.ID = strconv.Itoa(len(entries) + 1)
				if err := current.setTimes(trimmed); err != nil {
					return nil, err
				}
				state = "text"
				continue
			}
			current.ID = trimmed
			state = "time"

		case "time":
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if err := current.setTimes(trimmed); err != nil {
				return nil, err
			}
			state = "text"

		case "text":
			if strings.TrimSpace(line) == "" {
				flush()
				state = "index"
				continue
			}
			textLines = append(textLines, line)
		}
	}

	if state == "text" {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	return entries, nil
}

func (e *Entry) setTimes(line string) error {
	start, end, err := parseSRTTime(line)
	if err != nil {
		return fmt.Errorf("cue %s: failed to parse time: %w", e.ID, err)
	}
	e.StartTime = start
	e.EndTime = end
	return nil
}

// parseSRTTime parses SRT time format
func parseSRTTime(timeString string) (time.Duration, time.Duration, error) {
	// SRT time format: 00:02:16,612 --> 00:02:19,376
	matches := srtTimeRe.FindStringSubmatch(timeString)
	if len(matches) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", timeString)
	}

	parseTime := func(hours, minutes, seconds, fraction string) time.Duration {
		h, _ := strconv.Atoi(hours)
		m, _ := strconv.Atoi(minutes)
		s, _ := strconv.Atoi(seconds)
		// "5" means 500ms, "05" means 50ms
		for len(fraction) < 3 {
			fraction += "0"
		}
		ms, _ := strconv.Atoi(fraction)

		return time.Duration(h)*time.Hour +
			time.Duration(m)*time.Minute +
			time.Duration(s)*time.Second +
			time.Duration(ms)*time.Millisecond
	}

	return parseTime(matches[1], matches[2], matches[3], matches[4]),
		parseTime(matches[5], matches[6], matches[7], matches[8]),
		nil
}

// detectLanguage picks the most frequent language among cue texts.
func detectLanguage(entries []Entry) language.Tag {
	if len(entries) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, entry := range entries {
		info := whatlanggo.Detect(entry.Text)
		if !info.IsReliable() {
			continue
		}
		langMap[info.Lang.Iso6391()]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount || (count == topCount && lang < topLang) {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}

	tag, err := language.Parse(topLang)
	if err != nil {
		return language.Und
	}
	return tag
}
