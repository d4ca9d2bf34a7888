package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_KnownTags(t *testing.T) {
	assert.Equal(t, Tag720p, Extract("Show.Name.S01E02.720p.mkv"))
	assert.Equal(t, Tag1080p, Extract("Show.Name.S01E03.1080p.mkv"))
	assert.Equal(t, Tag4K, Extract("Movie.2160p.WEB-DL.mkv"))
	assert.Equal(t, TagHDRip, Extract("Movie.HD-Rip.avi"))
	assert.Equal(t, Tag360p, Extract("clip_360p.mp4"))
}

func TestExtract_NoTag(t *testing.T) {
	assert.Equal(t, Tag(""), Extract("Show.Name.S01E02.mkv"))
}

func TestPriority_Ordering(t *testing.T) {
	assert.Less(t, Priority(Tag360p), Priority(Tag480p))
	assert.Less(t, Priority(Tag480p), Priority(Tag720p))
	assert.Less(t, Priority(Tag720p), Priority(Tag1080p))
	assert.Less(t, Priority(Tag1080p), Priority(TagHDRip))
	assert.Less(t, Priority(TagHDRip), Priority(Tag4K))
	assert.Equal(t, 999, Priority(Tag("8K")))
}

func TestBaseName_StripsQualityAndEpisode(t *testing.T) {
	assert.Equal(t, "Movie Name", BaseName("Movie.Name.S01E01.1080p.mkv"))

	// Same title across episodes and qualities.
	b1 := BaseName("Show.Name.S01E02.720p.mkv")
	b2 := BaseName("Show.Name.S01E03.1080p.mkv")
	assert.Equal(t, b1, b2)
	assert.Equal(t, "Show Name", b1)
}

func TestBaseName_StripsNoise(t *testing.T) {
	assert.Equal(t, "Some Movie", BaseName("Some.Movie.2019.BluRay.x264.[YTS].mkv"))
	assert.Equal(t, "Some Show", BaseName("Some_Show-Season 2_WEBRip_Dual_Audio.mp4"))
}

func TestSeriesName_StripsEpisodeMarkers(t *testing.T) {
	assert.Equal(t, "Ancient Magus", SeriesName("E07 Ancient Magus 720p.mkv"))
	assert.Equal(t, "Ancient Magus", SeriesName("Ancient Magus Ep12 480p.mkv"))
}

func TestParseEpisode(t *testing.T) {
	info := ParseEpisode("Show.Name.S02E11.720p.mkv")
	assert.Equal(t, 2, info.Season)
	assert.Equal(t, 11, info.Episode)

	assert.Equal(t, EpisodeInfo{}, ParseEpisode("Movie.1080p.mkv"))
}

func TestShouldGroup(t *testing.T) {
	// Same title, distinct qualities.
	assert.True(t, ShouldGroup("Show.Name.S01E02.720p.mkv", "Show.Name.S01E02.1080p.mkv"))

	// Identical quality never groups.
	assert.False(t, ShouldGroup("Show.Name.S01E02.720p.mkv", "Show.Name.S01E02.720p.mp4"))

	// Missing quality tag never groups.
	assert.False(t, ShouldGroup("Show.Name.S01E02.mkv", "Show.Name.S01E02.720p.mkv"))

	// Different titles never group.
	assert.False(t, ShouldGroup("Show.One.720p.mkv", "Show.Two.1080p.mkv"))
}
