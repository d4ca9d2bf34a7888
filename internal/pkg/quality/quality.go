// Package quality extracts quality tags and normalized titles from media
// filenames. All functions are pure; the package holds no state.
package quality

import (
	"regexp"
	"strings"
)

// Tag is a recognised quality marker.
type Tag string

const (
	Tag360p  Tag = "360p"
	Tag480p  Tag = "480p"
	Tag720p  Tag = "720p"
	Tag1080p Tag = "1080p"
	TagHDRip Tag = "HDRip"
	Tag4K    Tag = "4K"
)

type tagPattern struct {
	tag      Tag
	re       *regexp.Regexp
	priority int
}

// tagPatterns is ordered: Extract returns the first tag whose pattern
// matches. Priority is the display/sort order (lower sorts first).
var tagPatterns = []tagPattern{
	{Tag480p, regexp.MustCompile(`(?i)480p`), 1},
	{Tag720p, regexp.MustCompile(`(?i)720p`), 2},
	{Tag1080p, regexp.MustCompile(`(?i)1080p`), 3},
	{TagHDRip, regexp.MustCompile(`(?i)HDRip|HD-Rip|HD Rip`), 4},
	{Tag4K, regexp.MustCompile(`(?i)4K|2160p`), 5},
	{Tag360p, regexp.MustCompile(`(?i)360p`), 0},
}

var (
	separatorRe = regexp.MustCompile(`[.\-_/;:,\\]+`)
	spaceRe     = regexp.MustCompile(`\s+`)
	episodeRe   = regexp.MustCompile(`(?i)S(\d+)[._-]*E(\d+)`)

	// Noise stripped from titles: episode markers, years, source/codec/
	// container tags and bracketed annotations.
	noiseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)S\d+E\d+`),
		regexp.MustCompile(`(?i)\bS\d+\b`),
		regexp.MustCompile(`(?i)Season\s*\d+`),
		regexp.MustCompile(`(?i)Episode\s*\d+`),
		regexp.MustCompile(`\d{4}`),
		regexp.MustCompile(`(?i)BluRay|BRRip|WEBRip|WEB-DL`),
		regexp.MustCompile(`(?i)x264|x265|HEVC`),
		regexp.MustCompile(`(?i)\bDual\b`),
		regexp.MustCompile(`(?i)\bAudio\b`),
		regexp.MustCompile(`(?i)\bMulti\b`),
		regexp.MustCompile(`(?i)\bmkv\b`),
		regexp.MustCompile(`(?i)\bmp4\b`),
		regexp.MustCompile(`(?i)\bavi\b`),
		regexp.MustCompile(`\[[^\]]*\]`),
		regexp.MustCompile(`\([^)]*\)`),
	}

	// Additional episode markers SeriesName strips beyond BaseName.
	seriesNoiseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bE\d+\b`),
		regexp.MustCompile(`(?i)\bEp\d+\b`),
		regexp.MustCompile(`(?i)\bEpisode\s*\d+\b`),
		regexp.MustCompile(`^\d+\s+`),
		regexp.MustCompile(`\s+\d+$`),
	}
)

// Extract returns the quality tag found in filename, or "" when none of the
// known tags match.
func Extract(filename string) Tag {
	for _, tp := range tagPatterns {
		if tp.re.MatchString(filename) {
			return tp.tag
		}
	}
	return ""
}

// Priority returns the sort priority for a tag. Unknown tags sort last.
func Priority(tag Tag) int {
	for _, tp := range tagPatterns {
		if tp.tag == tag {
			return tp.priority
		}
	}
	return 999
}

// BaseName strips the extension, separators, quality tags, episode/season
// markers, year tokens, codec/container markers and bracketed annotations,
// then collapses whitespace.
//
//	BaseName("Movie.Name.S01E01.1080p.mkv") == "Movie Name"
func BaseName(filename string) string {
	name := filename
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}

	name = separatorRe.ReplaceAllString(name, " ")

	for _, tp := range tagPatterns {
		name = tp.re.ReplaceAllString(name, "")
	}
	for _, re := range noiseRes {
		name = re.ReplaceAllString(name, "")
	}

	name = separatorRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(name, " "))
}

// SeriesName strips episode markers more aggressively than BaseName, so
// episodes of one season normalize to the same title.
//
//	SeriesName("E07 Ancient Magus 720p.mkv") == "Ancient Magus"
func SeriesName(filename string) string {
	name := BaseName(filename)
	for _, re := range seriesNoiseRes {
		name = re.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(name, " "))
}

// EpisodeInfo holds season/episode numbers parsed from a filename.
// Zero values mean the marker was absent.
type EpisodeInfo struct {
	Season  int
	Episode int
}

// ParseEpisode extracts S01E02-style season and episode numbers.
func ParseEpisode(filename string) EpisodeInfo {
	m := episodeRe.FindStringSubmatch(filename)
	if m == nil {
		return EpisodeInfo{}
	}
	return EpisodeInfo{Season: atoi(m[1]), Episode: atoi(m[2])}
}

// ShouldGroup reports whether two filenames are quality variants of the same
// title: identical normalized titles with two distinct known quality tags.
func ShouldGroup(file1, file2 string) bool {
	if !strings.EqualFold(BaseName(file1), BaseName(file2)) {
		return false
	}
	q1, q2 := Extract(file1), Extract(file2)
	if q1 == "" || q2 == "" {
		return false
	}
	return q1 != q2
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
