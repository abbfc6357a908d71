// Package synth resolves audio synthesis targets: choosing a source track
// by scored preference criteria, building the channel downmix filter graph,
// and selecting an encoder from externally detected capabilities.
//
// Resolution is planning only. The resulting Operation describes the ffmpeg
// work for the executor; nothing here touches files.
package synth
