// Package song holds the song aggregate and the lyric workflows built on the verse engine:
// normalizing lyrics before they are stored, splitting stored lyrics into an editable draft,
// and producing the performance sequence shown to a congregation.
package song

import (
	"time"

	"github.com/FocuswithJustin/JuniperSongs/core/verse"
)

// Song is one entry of the song library.
type Song struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Copyright string `json:"copyright,omitempty"`
	CCLI      string `json:"ccli,omitempty"`

	// Lyrics holds the unique source verses in markup form.
	Lyrics string `json:"lyrics"`

	// VerseOrder is the canonical order notation; empty means the stored verse order.
	VerseOrder string `json:"verse_order,omitempty"`

	// Revision fingerprints Lyrics and VerseOrder; updates must name the current one.
	Revision string `json:"revision"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft is the editable form of a song's lyrics.
type Draft struct {
	Sources []verse.Verse `json:"sources"`
	Order   string        `json:"order"`
}

// Sequence returns the verses of the song in performance order.
func (s *Song) Sequence() []verse.Verse {
	return Sequence(s.Lyrics, s.VerseOrder)
}

// Draft splits the song's lyrics into unique sources and an order string.
func (s *Song) Draft() Draft {
	return Decompose(s.Lyrics, s.VerseOrder)
}
