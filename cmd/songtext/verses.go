package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/core/verse"
	"github.com/FocuswithJustin/JuniperSongs/internal/validation"
)

// VersesCmd groups the stateless verse text tools.
type VersesCmd struct {
	Parse     VersesParseCmd     `cmd:"" help:"Split lyrics into verse records"`
	Render    VersesRenderCmd    `cmd:"" help:"Render JSON verse records as markup"`
	Normalize VersesNormalizeCmd `cmd:"" help:"Convert lyrics to stored form"`
	Dedupe    VersesDedupeCmd    `cmd:"" help:"Collapse repeated verses"`
}

// VersesParseCmd parses lyrics in any accepted form.
type VersesParseCmd struct {
	File string `arg:"" optional:"" help:"Lyrics file (default: stdin)"`
	JSON bool   `name:"json" help:"Print records as JSON"`
}

func (c *VersesParseCmd) Run(env *Env) error {
	input, err := readInput(env, c.File)
	if err != nil {
		return err
	}
	format := verse.DetectFormat(input)
	records := verse.Parse(input)

	if c.JSON {
		return writeJSON(env.Stdout, struct {
			Format string        `json:"format"`
			Verses []verse.Verse `json:"verses"`
		}{format.String(), records})
	}
	fmt.Fprintf(env.Stdout, "Format: %s\n", format)
	fmt.Fprintln(env.Stdout, verseTable(records))
	return nil
}

// VersesRenderCmd serializes records read as a JSON array.
type VersesRenderCmd struct {
	File string `arg:"" optional:"" help:"JSON records file (default: stdin)"`
}

func (c *VersesRenderCmd) Run(env *Env) error {
	input, err := readInput(env, c.File)
	if err != nil {
		return err
	}
	var records []verse.Verse
	if err := json.Unmarshal([]byte(input), &records); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}
	fmt.Fprintln(env.Stdout, verse.Serialize(records))
	return nil
}

// VersesNormalizeCmd prints lyrics in stored form: unique sources plus a canonical order.
type VersesNormalizeCmd struct {
	File  string `arg:"" optional:"" help:"Lyrics file (default: stdin)"`
	Order string `help:"Order string to keep with the lyrics"`
	JSON  bool   `name:"json" help:"Print lyrics and order as JSON"`
}

func (c *VersesNormalizeCmd) Run(env *Env) error {
	input, err := readInput(env, c.File)
	if err != nil {
		return err
	}
	lyrics, order, err := song.Normalize(input, c.Order)
	if err != nil {
		return err
	}

	if c.JSON {
		return writeJSON(env.Stdout, struct {
			Lyrics string `json:"lyrics"`
			Order  string `json:"order"`
		}{lyrics, order})
	}
	fmt.Fprintln(env.Stdout, lyrics)
	if order != "" {
		fmt.Fprintf(env.Stdout, "\nOrder: %s\n", order)
	}
	return nil
}

// VersesDedupeCmd keeps one record per identifier and reports the order that rebuilds the input.
type VersesDedupeCmd struct {
	File string `arg:"" optional:"" help:"Lyrics file (default: stdin)"`
	JSON bool   `name:"json" help:"Print records and order as JSON"`
}

func (c *VersesDedupeCmd) Run(env *Env) error {
	input, err := readInput(env, c.File)
	if err != nil {
		return err
	}
	unique, order := song.Contract(verse.Parse(input))

	if c.JSON {
		return writeJSON(env.Stdout, struct {
			Verses []verse.Verse `json:"verses"`
			Order  string        `json:"order"`
		}{unique, order})
	}
	fmt.Fprintln(env.Stdout, verseTable(unique))
	fmt.Fprintf(env.Stdout, "Order: %s\n", order)
	return nil
}

// OrderCmd groups the order string tools.
type OrderCmd struct {
	Expand   OrderExpandCmd   `cmd:"" help:"Build the performance sequence for an order"`
	Contract OrderContractCmd `cmd:"" help:"Derive the order string of a sequence"`
	Check    OrderCheckCmd    `cmd:"" help:"Validate an order string"`
}

// OrderExpandCmd expands an order against the source verses of a lyrics file.
type OrderExpandCmd struct {
	Order  string `arg:"" help:"Order string, e.g. \"v1 c1 v2 c1\""`
	File   string `arg:"" optional:"" help:"Lyrics file (default: stdin)"`
	Markup bool   `help:"Print the sequence as markup"`
	JSON   bool   `name:"json" help:"Print the sequence as JSON"`
}

func (c *OrderExpandCmd) Run(env *Env) error {
	input, err := readInput(env, c.File)
	if err != nil {
		return err
	}
	sequence, err := verse.Expand(c.Order, verse.Parse(input))
	if err != nil {
		return fmt.Errorf("order %q: %w", c.Order, err)
	}

	dangling := verse.Dangling(sequence)
	if len(dangling) > 0 {
		ids := make([]string, 0, len(dangling))
		for _, pos := range dangling {
			ids = append(ids, sequence[pos-1].SourceID)
		}
		fmt.Fprintf(env.Stderr, "warning: no lyrics for %s\n", strings.Join(ids, ", "))
	}

	switch {
	case c.JSON:
		return writeJSON(env.Stdout, sequence)
	case c.Markup:
		fmt.Fprintln(env.Stdout, verse.Serialize(sequence))
	default:
		fmt.Fprintln(env.Stdout, verseTable(sequence))
	}
	return nil
}

// OrderContractCmd prints the order string that reproduces a sequence.
type OrderContractCmd struct {
	File string `arg:"" optional:"" help:"Lyrics file (default: stdin)"`
}

func (c *OrderContractCmd) Run(env *Env) error {
	input, err := readInput(env, c.File)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, verse.ToOrderString(verse.Parse(input)))
	return nil
}

// OrderCheckCmd validates an order string and prints its canonical form.
type OrderCheckCmd struct {
	Order string `arg:"" help:"Order string to check"`
}

func (c *OrderCheckCmd) Run(env *Env) error {
	if err := verse.ValidateOrder(c.Order); err != nil {
		return fmt.Errorf("order %q: %w", c.Order, err)
	}
	tokens, _ := verse.ParseOrder(c.Order)
	fmt.Fprintln(env.Stdout, verse.FormatOrder(tokens))
	return nil
}

// readInput returns the content of path, or of stdin when path is empty or "-".
func readInput(env *Env, path string) (string, error) {
	var r io.Reader = env.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, validation.MaxLyricsSize+1))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if err := validation.ValidateLyricsSize(string(data)); err != nil {
		return "", err
	}
	return string(data), nil
}
