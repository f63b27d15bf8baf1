// Package setlist parses plain-text set lists of the kind bands paste
// from notes apps:
//
//	1. Thunder Road - 4:45 (E)
//	2. So What - 9:10 (D) solos twice
//	-- break --
//	Encore Song (A)
//
// Each non-empty line becomes a song; a leading number is optional, an
// mm:ss duration after " - " is optional, a parenthesised key is
// optional, and anything after the key is kept as a note. Lines wrapped
// in "--" are section breaks.
package setlist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gigcal/internal/model"
)

// ParseError describes one unparseable line; parsing continues past it.
type ParseError struct {
	Line int    `json:"line"`
	Text string `json:"text"`
	Err  string `json:"error"`
}

var (
	numPrefix = regexp.MustCompile(`^\d+[.)]\s+`)
	duration  = regexp.MustCompile(`\s+-\s+(\d{1,2}):(\d{2})(?:\s+|$)`)
	keyParen  = regexp.MustCompile(`\(([^)]+)\)`)
)

// Parse converts set list text into ordered songs. Positions are
// assigned sequentially regardless of any numbers in the text (typed
// numbers drift after edits; order on the page wins).
func Parse(text string) ([]model.SetlistSong, []ParseError) {
	var songs []model.SetlistSong
	var errs []ParseError

	pos := 0
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if isSectionBreak(line) {
			pos++
			songs = append(songs, model.SetlistSong{
				Position:     pos,
				Title:        strings.TrimSpace(strings.Trim(line, "- ")),
				SectionBreak: true,
			})
			continue
		}

		song, err := parseLine(line)
		if err != nil {
			errs = append(errs, ParseError{Line: i + 1, Text: line, Err: err.Error()})
			continue
		}
		pos++
		song.Position = pos
		songs = append(songs, song)
	}

	return songs, errs
}

// TotalDuration sums song durations in seconds; section breaks and
// songs without a duration contribute nothing.
func TotalDuration(songs []model.SetlistSong) int {
	total := 0
	for _, s := range songs {
		total += s.DurationSeconds
	}
	return total
}

// FormatDuration renders seconds as h:mm:ss or m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func isSectionBreak(line string) bool {
	return strings.HasPrefix(line, "--")
}

func parseLine(line string) (model.SetlistSong, error) {
	line = numPrefix.ReplaceAllString(line, "")

	var song model.SetlistSong
	rest := ""

	if loc := duration.FindStringSubmatchIndex(line); loc != nil {
		mins, _ := strconv.Atoi(line[loc[2]:loc[3]])
		secs, _ := strconv.Atoi(line[loc[4]:loc[5]])
		if secs > 59 {
			return model.SetlistSong{}, fmt.Errorf("bad duration %d:%02d", mins, secs)
		}
		song.DurationSeconds = mins*60 + secs
		song.Title = strings.TrimSpace(line[:loc[0]])
		rest = strings.TrimSpace(line[loc[1]:])
	} else if km := keyParen.FindStringSubmatchIndex(line); km != nil {
		song.Title = strings.TrimSpace(line[:km[0]])
		song.Key = line[km[2]:km[3]]
		song.Note = strings.TrimSpace(line[km[1]:])
	} else {
		song.Title = line
	}

	// Key and note trailing a duration: "(D) solos twice".
	if rest != "" {
		if km := keyParen.FindStringSubmatchIndex(rest); km != nil && km[0] == 0 {
			song.Key = rest[km[2]:km[3]]
			song.Note = strings.TrimSpace(rest[km[1]:])
		} else {
			song.Note = rest
		}
	}

	if song.Title == "" {
		return model.SetlistSong{}, fmt.Errorf("missing title")
	}
	return song, nil
}
