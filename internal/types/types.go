package types

// PlaceholderImageURL is used for content items that do not supply an image
const PlaceholderImageURL = "https://placehold.co/600x400"

// ContentItem is one entry of a content feed (event, blog post or program).
// Only title and slug are common to all feeds - the other fields are feed specific and may be missing.
type ContentItem struct {
	Slug        string `json:"slug" toml:"slug" example:"annual-tech-summit-2024"`
	Title       string `json:"title" toml:"title" example:"Annual Tech Summit 2024"`
	Date        string `json:"date,omitempty" toml:"date" example:"October 26, 2024"`
	Location    string `json:"location,omitempty" toml:"location" example:"SMX Convention Center, Manila"`
	Author      string `json:"author,omitempty" toml:"author" example:"Jane Doe"`
	Description string `json:"description,omitempty" toml:"description"`
	ImageURL    string `json:"imageUrl,omitempty" toml:"image_url"`
}

// Image returns the item image or the placeholder when the item has none
func (i ContentItem) Image() string {
	if i.ImageURL == "" {
		return PlaceholderImageURL
	}
	return i.ImageURL
}

// AlertType is the notification style used for form messages
type AlertType string

const (
	AlertSuccess AlertType = "success"
	AlertDanger  AlertType = "danger"
)

// FormField describes an input rendered on a site form
type FormField struct {
	Name     string
	Label    string
	Type     string // text, email, tel or textarea
	Required bool
}

// FormResponse is the body returned by the content API form endpoints
type FormResponse struct {
	Message      string `json:"message,omitempty" example:"Thank you for subscribing!"`
	SubmissionID string `json:"submission_id,omitempty" example:"68fb5f5b-e3f5-4a96-8d35-cd2203a06f73"`
}
