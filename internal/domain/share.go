package domain

// Share channels. Positive reviews go to a community for good customers,
// the rest to one for server stories.
const (
	ChannelPositive = "KindCustomers"
	ChannelNegative = "TalesFromYourServer"
)

// ShareContent is an anonymized post generated from a single review. It never
// carries the phone number, the customer's name or the reviewer's identity.
type ShareContent struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Channel    string   `json:"channel"`
	ActorLabel string   `json:"actor_label"`
	Rating     float64  `json:"rating"`
	Tags       []string `json:"tags"`
}

// PublishResult reports the outcome of publishing share content.
type PublishResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}
