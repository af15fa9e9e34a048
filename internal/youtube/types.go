package youtube

// CaptionFormat is one downloadable rendition of a caption track.
type CaptionFormat struct {
	Ext  string `json:"ext"` // vtt, srv1, srv2, srv3, json3, ttml
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// VideoInfo is the subset of yt-dlp's info JSON the service relies on.
type VideoInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"` // seconds, 0 when the platform does not report it

	// Subtitles holds creator-provided tracks, AutomaticCaptions machine
	// generated ones. Both are keyed by language code.
	Subtitles         map[string][]CaptionFormat `json:"subtitles"`
	AutomaticCaptions map[string][]CaptionFormat `json:"automatic_captions"`
}
