package types

// Tournament is one entry of the tournament list built from tier categories.
type Tournament struct {
	Title  string `json:"title"`
	PageID int64  `json:"pageid"`
	Tier   string `json:"tier"`
}
