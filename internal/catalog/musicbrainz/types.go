package musicbrainz

// Response shapes for the MusicBrainz WS/2 JSON API. Only the fields the
// adapter reads are mapped.

type artistSearchResponse struct {
	Artists []mbArtist `json:"artists"`
}

type mbArtist struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Score   int     `json:"score"`
	Area    *mbArea `json:"area"`
}

type mbArea struct {
	ISOCodes []string `json:"iso-3166-1-codes"`
}

type recordingSearchResponse struct {
	Recordings []mbRecording `json:"recordings"`
}

type mbRecording struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Score        int              `json:"score"`
	Length       int              `json:"length"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	Releases     []mbRelease      `json:"releases"`
	Genres       []mbGenre        `json:"genres"`
	Tags         []mbTag          `json:"tags"`
	Relations    []mbRelation     `json:"relations"`
}

type mbArtistCredit struct {
	Name   string    `json:"name"`
	Artist *mbEntity `json:"artist"`
}

type mbEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mbRelease struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

type mbGenre struct {
	Name string `json:"name"`
}

type mbTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type mbRelation struct {
	Type       string    `json:"type"`
	TargetType string    `json:"target-type"`
	Artist     *mbEntity `json:"artist"`
	Work       *mbEntity `json:"work"`
}

type releaseDetailResponse struct {
	Media []mbMedium `json:"media"`
}

type mbMedium struct {
	Tracks []mbTrack `json:"tracks"`
}

type mbTrack struct {
	Position  int       `json:"position"`
	Length    int       `json:"length"`
	Recording *mbEntity `json:"recording"`
}

type artistDetailResponse struct {
	Area      *mbArea `json:"area"`
	BeginArea *mbArea `json:"begin-area"`
}

type workDetailResponse struct {
	Relations []mbRelation `json:"relations"`
}
