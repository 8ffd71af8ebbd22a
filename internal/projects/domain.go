package projects

// Project is a portfolio entry as returned by the backend.
type Project struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	ShortDesc  string   `json:"shortDesc"`
	DetailDesc string   `json:"detailDesc,omitempty"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
	DemoURL    string   `json:"demoUrl,omitempty"`
	GithubURL  string   `json:"githubUrl,omitempty"`
	TechTags   []string `json:"techTags"`
	Status     string   `json:"status,omitempty"`
	ViewCount  int      `json:"viewCount"`
	Comments   int      `json:"comments"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	UpdatedAt  string   `json:"updatedAt,omitempty"`
}

// Create is the payload for a new project.
type Create struct {
	Title      string   `json:"title"`
	ShortDesc  string   `json:"shortDesc"`
	DetailDesc string   `json:"detailDesc,omitempty"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
	DemoURL    string   `json:"demoUrl,omitempty"`
	GithubURL  string   `json:"githubUrl,omitempty"`
	TechTags   []string `json:"techTags"`
}

// Update carries only the fields being changed.
type Update struct {
	Title      *string   `json:"title,omitempty"`
	ShortDesc  *string   `json:"shortDesc,omitempty"`
	DetailDesc *string   `json:"detailDesc,omitempty"`
	Thumbnail  *string   `json:"thumbnail,omitempty"`
	DemoURL    *string   `json:"demoUrl,omitempty"`
	GithubURL  *string   `json:"githubUrl,omitempty"`
	TechTags   *[]string `json:"techTags,omitempty"`
}
