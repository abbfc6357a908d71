package synth

import (
	"fmt"

	"medley/internal/services"
)

// channelLayouts names the ffmpeg layout for each supported channel count.
var channelLayouts = map[int]string{
	1: "mono",
	2: "stereo",
	6: "5.1",
	8: "7.1",
}

// downmixPair keys the fixed filter-graph table.
type downmixPair struct {
	Source int
	Target int
}

// downmixFilters maps a (source, target) channel pair to a pan filter graph.
// Every graph references every source channel explicitly, so LFE content is
// remixed into the surviving channels rather than silently dropped.
var downmixFilters = map[downmixPair]string{
	{8, 6}: "pan=5.1|FL=FL+0.707*SL|FR=FR+0.707*SR|FC=FC|LFE=LFE|BL=BL+0.707*SL|BR=BR+0.707*SR",
	{8, 2}: "pan=stereo|FL=FL+0.707*FC+0.707*BL+0.5*SL+0.5*LFE|FR=FR+0.707*FC+0.707*BR+0.5*SR+0.5*LFE",
	{8, 1}: "pan=mono|FC=0.5*FL+0.5*FR+0.707*FC+0.354*BL+0.354*BR+0.25*SL+0.25*SR+0.354*LFE",
	{6, 2}: "pan=stereo|FL=FL+0.707*FC+0.707*BL+0.5*LFE|FR=FR+0.707*FC+0.707*BR+0.5*LFE",
	{6, 1}: "pan=mono|FC=0.5*FL+0.5*FR+0.707*FC+0.354*BL+0.354*BR+0.354*LFE",
	{2, 1}: "pan=mono|FC=0.5*FL+0.5*FR",
}

// SourceChannelNames returns the channel names of a layout, used by tests
// and diagnostics to confirm graph coverage.
func SourceChannelNames(channels int) []string {
	switch channels {
	case 8:
		return []string{"FL", "FR", "FC", "LFE", "BL", "BR", "SL", "SR"}
	case 6:
		return []string{"FL", "FR", "FC", "LFE", "BL", "BR"}
	case 2:
		return []string{"FL", "FR"}
	case 1:
		return []string{"FC"}
	default:
		return nil
	}
}

// DownmixFilter returns the filter graph for reducing source channels to
// target channels. Equal counts need no filter. Upmixing is a hard error.
// Unmapped reductions fall back to a generic channel-layout conversion; the
// second return reports whether the fixed table was used.
func DownmixFilter(source, target int) (string, bool, error) {
	if source == target {
		return "", true, nil
	}
	if target > source {
		return "", false, services.Wrap(services.ErrUpmix, "synth", "downmix",
			fmt.Sprintf("cannot upmix %d channels to %d", source, target), nil)
	}
	if graph, ok := downmixFilters[downmixPair{Source: source, Target: target}]; ok {
		return graph, true, nil
	}

	layout, ok := channelLayouts[target]
	if !ok {
		layout = fmt.Sprintf("%dc", target)
	}
	return "aformat=channel_layouts=" + layout, false, nil
}
