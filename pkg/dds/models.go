package dds

import "encoding/json"

// Item statuses reported by the DDS API
const (
	StatusAvailable = "Available"
	StatusQueued    = "Queued"
)

// Entry identifies a single catalog entry to fetch
type Entry struct {
	CollectionID string `json:"collectionId"`
	ArchiveID    string `json:"archiveId"`
}

// Item is a DDS item metadata record. Only the fields this tool acts on are
// decoded; the full payload is preserved in Raw for pass-through.
type Item struct {
	ArchiveID    string `json:"archiveId"`
	DatasetID    string `json:"datasetId"`
	ServiceUUID  string `json:"serviceUuid"`
	CollectionID string `json:"collectionId"`
	Status       string `json:"status"`
	DownloadURL  string `json:"download_url"`
	Title        string `json:"title"`

	// Raw is the undecoded item payload as returned by the API
	Raw json.RawMessage `json:"-"`
}

// ID returns the best available identifier for the item
func (i *Item) ID() string {
	switch {
	case i.ArchiveID != "":
		return i.ArchiveID
	case i.DatasetID != "":
		return i.DatasetID
	case i.ServiceUUID != "":
		return i.ServiceUUID
	default:
		return "unknown"
	}
}

// Buckets groups fetched items by availability status
type Buckets struct {
	Ready   []*Item
	Queued  []*Item
	Unknown []*Item
}

// Total returns the number of items across all buckets
func (b *Buckets) Total() int {
	return len(b.Ready) + len(b.Queued) + len(b.Unknown)
}

// add places an item into the bucket matching its status
func (b *Buckets) add(item *Item) {
	switch item.Status {
	case StatusAvailable:
		b.Ready = append(b.Ready, item)
	case StatusQueued:
		b.Queued = append(b.Queued, item)
	default:
		b.Unknown = append(b.Unknown, item)
	}
}

// loginResponse is the AAA login endpoint response body
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// apiErrorBody is the DDS error response body
type apiErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
