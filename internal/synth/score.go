package synth

import (
	"strings"

	"medley/internal/language"
	"medley/internal/media"
	"medley/internal/rules"
)

// Scoring weights for source-track selection.
const (
	scoreLanguageMatch = 100
	scoreNotCommentary = 80
	scoreCodecMatch    = 20
	scorePerChannel    = 10
	scoreExactChannels = 80
)

// Selection is the outcome of scoring the candidate audio tracks.
type Selection struct {
	Track    media.Track
	Score    int
	Fallback bool
}

// ScoreTrack sums the ordered criteria against one candidate track.
func ScoreTrack(track media.Track, criteria []Criterion, ctx *rules.Context) int {
	score := 0
	for _, criterion := range criteria {
		switch criterion.Kind {
		case CriterionLanguage:
			if language.Matches(track.Language, criterion.Language) {
				score += scoreLanguageMatch
			}
		case CriterionCommentary:
			if ctx.IsCommentaryTrack(track) == criterion.Commentary {
				score += scoreNotCommentary
			}
		case CriterionCodec:
			if strings.EqualFold(strings.TrimSpace(track.Codec), strings.TrimSpace(criterion.Codec)) {
				score += scoreCodecMatch
			}
		case CriterionChannels:
			switch criterion.ChannelMode {
			case ChannelsMax:
				score += scorePerChannel * track.Channels
			case ChannelsMin:
				score -= scorePerChannel * track.Channels
			case ChannelsExact:
				if track.Channels == criterion.ChannelCount {
					score += scoreExactChannels
				}
			}
		}
	}
	return score
}

// SelectSource scores every audio track and returns the best candidate,
// ties broken by input order. When no candidate scores above zero the first
// audio track is returned as a fallback. The second return is false when
// the container has no audio tracks at all.
func SelectSource(container media.Container, criteria []Criterion, ctx *rules.Context) (Selection, bool) {
	audio := container.TracksOfType(media.TrackAudio)
	if len(audio) == 0 {
		return Selection{}, false
	}

	best := audio[0]
	bestScore := ScoreTrack(audio[0], criteria, ctx)
	for _, track := range audio[1:] {
		if score := ScoreTrack(track, criteria, ctx); score > bestScore {
			best, bestScore = track, score
		}
	}

	if bestScore <= 0 {
		return Selection{Track: audio[0], Score: 0, Fallback: true}, true
	}
	return Selection{Track: best, Score: bestScore}, true
}
