package viewmodels

type LayoutData struct {
	Title         string
	ActivePath    string
	RequestID     string
	LiveURL       string
	Authenticated bool
}
