package push

const (
	DefaultBody = "You have a new notification"
	DefaultURL  = "/"
)

// Payload is serialized once per fan-out; every resolved subscription
// receives the same bytes.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	URL   string `json:"url"`
}

func (p Payload) WithDefaults(appName, appIcon string) Payload {
	if p.Title == "" {
		p.Title = appName
	}
	if p.Body == "" {
		p.Body = DefaultBody
	}
	if p.Icon == "" {
		p.Icon = appIcon
	}
	if p.URL == "" {
		p.URL = DefaultURL
	}
	return p
}
