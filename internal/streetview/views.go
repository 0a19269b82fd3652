package streetview

import (
	"net/url"
	"strconv"
)

// View is one cardinal-direction image of a panorama.
type View struct {
	Heading int    `json:"heading"`
	Name    string `json:"name"`
	URL     string `json:"url"`
}

var headings = []struct {
	degrees int
	name    string
}{
	{0, "North"},
	{90, "East"},
	{180, "South"},
	{270, "West"},
}

const (
	viewSize    = "1200x675"
	previewSize = "600x400"
)

// Views returns the north, east, south and west images of a panorama, in
// that order.
func (c *Client) Views(panoID string) []View {
	out := make([]View, len(headings))
	for i, h := range headings {
		out[i] = View{
			Heading: h.degrees,
			Name:    h.name,
			URL:     c.imageURL(panoID, viewSize, h.degrees),
		}
	}
	return out
}

// PreviewURL is the smaller north-facing image shown when a round ends.
func (c *Client) PreviewURL(panoID string) string {
	return c.imageURL(panoID, previewSize, 0)
}

func (c *Client) imageURL(panoID, size string, heading int) string {
	q := url.Values{}
	q.Set("size", size)
	q.Set("pano", panoID)
	q.Set("heading", strconv.Itoa(heading))
	q.Set("key", c.key)
	return c.baseURL + "?" + q.Encode()
}

// ViewerLink opens the panorama in the interactive Google Maps viewer.
func ViewerLink(panoID string) string {
	return "https://www.google.com/maps/@?api=1&map_action=pano&pano=" + url.QueryEscape(panoID)
}
