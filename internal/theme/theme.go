// Package theme maps the template and music selectors stored on an
// invitation to what the public page needs to render them.
package theme

// Template is a colour scheme for the public invitation page.
type Template struct {
	ID         int    `json:"id"`
	Key        string `json:"key"`
	Background string `json:"background"`
	TextColor  string `json:"text_color"`
	Accent     string `json:"accent"`
}

// Music is a background track.
type Music struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
	URL string `json:"url"`
}

var fallbackTemplate = Template{
	Key:        "template.default",
	Background: "bg-gradient-soft",
	TextColor:  "text-foreground",
	Accent:     "text-primary",
}

var templates = []Template{
	{ID: 1, Key: "template.classic", Background: "bg-gradient-to-b from-rose-50 to-pink-100", TextColor: "text-rose-900", Accent: "text-rose-600"},
	{ID: 2, Key: "template.modern", Background: "bg-gradient-to-b from-slate-50 to-gray-100", TextColor: "text-slate-900", Accent: "text-slate-600"},
	{ID: 3, Key: "template.floral", Background: "bg-gradient-to-b from-green-50 to-emerald-100", TextColor: "text-green-900", Accent: "text-green-600"},
	{ID: 4, Key: "template.vintage", Background: "bg-gradient-to-b from-amber-50 to-yellow-100", TextColor: "text-amber-900", Accent: "text-amber-600"},
	{ID: 5, Key: "template.minimalist", Background: "bg-gradient-to-b from-white to-gray-50", TextColor: "text-gray-900", Accent: "text-gray-600"},
}

var music = []Music{
	{ID: 1, Key: "music.romantic", URL: "https://www.soundjay.com/misc/sounds/piano-moment.mp3"},
	{ID: 2, Key: "music.acoustic", URL: "https://www.soundjay.com/misc/sounds/acoustic-guitar.mp3"},
	{ID: 3, Key: "music.instrumental", URL: "https://www.soundjay.com/misc/sounds/relaxing-music.mp3"},
}

// TemplateFor returns the template with id, or the default scheme for
// unknown ids.
func TemplateFor(id int) Template {
	for _, t := range templates {
		if t.ID == id {
			return t
		}
	}
	t := fallbackTemplate
	t.ID = id
	return t
}

// MusicFor returns the track with id. ok is false for unknown ids, in which
// case the page plays nothing.
func MusicFor(id int) (Music, bool) {
	for _, m := range music {
		if m.ID == id {
			return m, true
		}
	}
	return Music{}, false
}

// Templates lists the selectable templates in display order.
func Templates() []Template {
	return append([]Template(nil), templates...)
}

// Tracks lists the selectable music in display order.
func Tracks() []Music {
	return append([]Music(nil), music...)
}
