package console

import (
	"context"
)

// ReadLineFrom collects printable keys read from c into a line until Enter,
// echoing them at the cursor. Backspace erases the last character.
func ReadLineFrom(ctx context.Context, c Console) (string, error) {
	var line []rune
	for {
		rec, err := c.ReadRecord(ctx)
		if err != nil {
			return string(line), err
		}
		ev := rec.Key
		if ev == nil || !ev.Down {
			continue
		}
		switch {
		case ev.Key == KeyEnter:
			c.Write("\n")
			c.Flush()
			return string(line), nil
		case ev.Key == KeyBackspace:
			if len(line) == 0 {
				continue
			}
			w := RuneWidth(line[len(line)-1])
			line = line[:len(line)-1]
			p := c.Cursor()
			p.X -= w
			if p.X < 0 {
				p.X = 0
			}
			c.SetCursor(p)
			for i := 0; i < w; i++ {
				c.Write(" ")
			}
			c.SetCursor(p)
		case ev.Printable() && !ev.CommandModifier():
			line = append(line, ev.Rune)
			c.Write(string(ev.Rune))
		}
		c.Flush()
	}
}
