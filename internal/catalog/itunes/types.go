package itunes

// searchResponse is the iTunes Search API response envelope.
type searchResponse struct {
	ResultCount int           `json:"resultCount"`
	Results     []trackResult `json:"results"`
}

type trackResult struct {
	TrackID          int    `json:"trackId"`
	ArtistName       string `json:"artistName"`
	TrackName        string `json:"trackName"`
	CollectionName   string `json:"collectionName"`
	PrimaryGenreName string `json:"primaryGenreName"`
	TrackTimeMillis  int    `json:"trackTimeMillis"`
	TrackNumber      int    `json:"trackNumber"`
	ReleaseDate      string `json:"releaseDate"`
}
