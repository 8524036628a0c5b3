package domain

// Notification is a push addressed to a single device.
type Notification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}
